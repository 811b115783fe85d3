/*
Package butterfly is the entry point of the transformation engine.

An Engine serves the single extension held by an extension.Registry. It can
pick a template automatically, or run a named template, a template type or a
whole upgrade path against an application folder:

	reg := extension.NewRegistry()
	_ = reg.Register(ext)

	engine, _ := butterfly.New(reg)
	cfg := engine.NewConfigurationWithZip(false)
	res, err := engine.Transform(ctx, "/apps/foo", "acme.SpringBootUpgradeTemplate", cfg)

Arguments are checked in order (application folder, configuration, template)
and nothing is staged until all of them are valid. A configuration timeout
bounds the whole call.
*/
package butterfly
