// Package hcl provides the HCL implementation of config.Loader. A manifest
// declares `stage` blocks and an optional `toolchain` block:
//
//	toolchain {
//	  dxc = "/opt/dxc/bin/dxc"
//	}
//
//	stage "vertex" {
//	  path = "basic.hlsl"
//	  fun  = "VSMain"
//	}
package hcl
