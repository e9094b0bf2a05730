// Command rungpt runs ReAct agents, plan-and-execute orchestrations and a
// small writing workflow against a configured language model.
package main

func main() {
	Execute()
}
