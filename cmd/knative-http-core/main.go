// Command knative-http-core runs the transport core as a standalone HTTP
// process: an inbound dispatcher and an outbound producer wired from a
// declarative environment file.
package main

import "github.com/fxsml/knative-http-core/cmd/knative-http-core/cmd"

func main() {
	cmd.Execute()
}
