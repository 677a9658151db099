// Package downstream consumes the health report of another service and
// folds it into the local report as a nested subsystem.
//
// A Client fetches and parses the remote document; its Checker plugs into
// a health.Runner so that the remote tree appears under the client's name:
//
//	client, err := downstream.NewClient(downstream.Config{
//	    Name:       "billing",
//	    URL:        "http://billing:8080/healthz",
//	    MinVersion: "2.0.0",
//	})
//	runner.Register(client.Name(), client.Checker())
//
// Repeated fetch failures open a circuit breaker; while open, the probe
// reports Unhealthy without calling the remote.
package downstream
