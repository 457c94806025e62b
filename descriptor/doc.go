// Package descriptor reads deployable descriptors.
//
// A descriptor is a YAML document:
//
//	kind: application
//	name: shop-app
//	coordinate: com.acme:shop-app:1.0.0:mule-application
//	searchPath: [lib, lib/shop.jar]
//	lookup: {com.acme.shared: parent-first}
//	dependency: {domain: com.acme:shop-domain:1.0.0:mule-domain}
//	plugins:
//	  - name: db
//	    searchPath: [plugins/db]
//	    exports: {namespaces: [com.acme.db]}
//
// Relative search-path entries resolve against the descriptor's directory.
// LoadDir scans a deployment directory holding domains/*.yaml and
// apps/*.yaml.
package descriptor
