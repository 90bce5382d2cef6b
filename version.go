package assetflow

// Version is the release of the console. Release builds override it with
// -ldflags "-X github.com/aretw0/assetflow.Version=...".
var Version = "0.1.0-dev"
