// Package hcl reads the two offline file formats of the editor: node catalog
// manifests and graph documents. Both are parsed with hclparse and decoded
// with gohcl into the schema structs of this package, then translated into
// the wire records the rest of the program already speaks
// (catalog.NodeRecord and graph.Payload).
//
// A manifest declares node templates:
//
//	node "math.Add" {
//	  name = "Add"
//	  pure = true
//	  input "a" {
//	    type    = "int"
//	    default = 0
//	  }
//	  output "result" { type = "int" }
//	}
//
// A graph document declares node instances, their wiring and graph
// variables:
//
//	variable "limit" {
//	  type  = "int"
//	  value = 10
//	}
//	node "n1" {
//	  type      = "math.Add"
//	  arguments = { a = 1 }
//	}
//	connection {
//	  from = "n1.result"
//	  to   = "n2.a"
//	}
package hcl
