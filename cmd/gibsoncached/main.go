// Command gibsoncached runs the cache server.
package main

func main() {
	Execute()
}
