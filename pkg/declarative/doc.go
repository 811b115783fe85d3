/*
Package declarative builds an extension from a manifest file so templates can
be written without compiling Go code.

	name: acme
	version: 1.0.0
	templates:
	  - name: acme.SpringBootUpgradeTemplate
	    applies_when:
	      all_exist: [pom.xml]
	      contains:
	        - files: pom.xml
	          text: spring-boot-starter-parent
	    operations:
	      - name: bump-parent
	        type: replace_text
	        files: pom.xml
	        replacements:
	          - from: <version>2.7.18</version>
	            to: <version>3.2.0</version>
	      - name: ci
	        type: manual
	        guidance: Update the CI image to JDK 17

Operation types:

	replace_text  literal replacements in files matching files (default every file)
	write_file    write content to path; skipped when identical or present without overwrite
	delete        remove everything matching files
	manual        report guidance as a manual action

The same manifest can be written in JSON or HCL, where templates and
operations are labelled blocks:

	template "acme.SpringBootUpgradeTemplate" {
	  applies_when {
	    all_exist = ["pom.xml"]
	  }
	  operation "bump-parent" {
	    type  = "replace_text"
	    files = "pom.xml"
	    replace {
	      from = "2.7.18"
	      to   = "3.2.0"
	    }
	  }
	}

A template without applies_when is never picked automatically; it can still
be selected by name.
*/
package declarative
