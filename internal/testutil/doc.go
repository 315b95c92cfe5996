// Package testutil provides test fixtures and a wired test environment.
//
// # Fixtures
//
// realm configuration files are embedded using go:embed:
//
//	fixtures/two_rules.toml     // two canonical blocks, one with a remark
//	fixtures/hand_edited.toml   // irregular spacing, misplaced remarks, a block without remote
//
// # Test Environment
//
// NewTestEnv builds an app.App whose paths live under t.TempDir(), whose
// service controller is a service.MockController and whose commands go to a
// system.MockExecutor. It installs itself as app.Default until Cleanup:
//
//	env := testutil.NewTestEnv(t)
//	defer env.Cleanup()
//	env.WriteConfig("two_rules.toml")
//	rules, _ := env.App.Store.List()
package testutil
