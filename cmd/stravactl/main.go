// Command stravactl manages the relay's Strava webhook subscription and
// inspects the stored credential without going through the HTTP server.
package main

func main() {
	Execute()
}
