// Package health checks a realm installation.
//
// Run probes, in order: the binary, the OpenRC init script, the service
// state, and the configuration file with its rules.
//
// # Health Status
//
//	StatusHealthy      - every check passed
//	StatusDegraded     - the service runs but some rules look wrong
//	StatusUnhealthy    - a required piece is missing or the service is down
//	StatusNotInstalled - the realm binary is absent
//
// Rule checks are warnings: incomplete [[endpoints]] blocks, listen
// addresses that do not validate, and rules that bind the same port
// (see package port).
//
//	result := health.Run(ctx, health.CheckOptions{
//		FS: fs, Paths: paths, Controller: ctrl, Store: store,
//	})
//	for _, c := range result.Failed() {
//		fmt.Println(c.Name, c.Detail)
//	}
package health
