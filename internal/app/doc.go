// Package app provides the application context for realm-ctl.
//
// This package manages application-wide dependencies using the functional
// options pattern, enabling easy testing through dependency injection.
//
// # App Context
//
// The App struct holds core dependencies:
//
//	type App struct {
//	    Paths      *config.Paths      // File system paths
//	    Settings   *config.Settings   // realm-ctl.toml plus overrides
//	    Controller service.Controller // OpenRC service
//	    Store      *rules.Store       // Rule editor for config.toml
//	    Audit      *audit.Logger      // Persistent event log
//	    Installer  *installer.Installer
//	}
//
// # Creating an App
//
//	// Production usage, honouring --root and --config
//	a, err := app.Load(root, configFile)
//
//	// Testing with custom dependencies
//	a := app.New(
//	    app.WithPaths(testPaths),
//	    app.WithExecutor(mockExec),
//	    app.WithController(mockCtrl),
//	)
//
// The Store is always wired to the Controller so that every rule edit
// restarts the service on a best-effort basis.
package app
