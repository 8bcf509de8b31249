// Package catalog holds the immutable node templates that live graph nodes are
// instantiated from.
//
// A Catalog is built once from the records delivered by the execution backend
// (or from offline manifests) and validated before use. After construction it
// is read-only and may be shared by any number of graphs. Graph code receives
// the catalog explicitly; there is no package-level catalog state.
package catalog
