// Package hcl loads evaluation plans written in HCL. A plan may be a single
// file or a directory of .hcl files whose blocks are merged in file-name
// order. Expressions may read the process environment through the `env`
// object, e.g. `working_directory = "${env.WORKSPACE}/suite"`.
package hcl
