/*
Package config holds the output configuration of a transformation and the run file loaders.

A Configuration picks exactly one output mode:

	config.New()                          // change the application folder in place
	config.NewWithZip(zip)                // new "<name>-transformed-<ts>" folder next to it
	config.NewWithOutputFolder(dir, zip)  // new "<name>-transformed-<ts>" folder inside dir

Run files describe a whole invocation and can be written in YAML, JSON, TOML
or HCL:

	application = "${run_dir}/app"
	template    = "acme.SpringBootUpgradeTemplate"

	output {
	  zip        = true
	  on_failure = "discard"
	  exclude    = [".git/**"]
	}

HCL files see run_dir (the directory holding the run file) and env.
*/
package config
