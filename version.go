package actor

import "ergo.services/actor/gen"

var (
	FrameworkVersion = gen.Version{
		Name:    "Actor Runtime",
		Release: "1.0.0",
		License: gen.LicenseMIT,
	}
)
