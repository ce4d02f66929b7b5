// Command gearguard is the terminal client for the GearGuard API
package main

func main() {
	Execute()
}
