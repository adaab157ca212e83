package mcpserver

import (
	"encoding/json"
)

const (
	serverName     = "cppsmell"
	registryName   = "io.github.panbanda/" + serverName
	repositoryURL  = "https://github.com/panbanda/" + serverName
	imageRepo      = "ghcr.io/panbanda/" + serverName
	manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"
)

// Manifest is the registry description of the server (server.json).
type Manifest struct {
	Schema      string      `json:"$schema"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Version     string      `json:"version"`
	Repository  *Repository `json:"repository,omitempty"`
	Packages    []Package   `json:"packages,omitempty"`
}

// Repository points at the source of the server.
type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Package is one way to launch the server. cppsmell ships as a container
// image whose entrypoint takes the "mcp" subcommand.
type Package struct {
	RegistryType     string     `json:"registryType"`
	Identifier       string     `json:"identifier"`
	PackageArguments []Argument `json:"packageArguments,omitempty"`
	Transport        Transport  `json:"transport"`
}

// Argument is a launch argument.
type Argument struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// Transport names the wire the server speaks.
type Transport struct {
	Type string `json:"type"`
}

// releaseVersion maps development builds to a registry-valid version.
func releaseVersion(version string) string {
	if version == "" || version == "dev" {
		return "0.0.0"
	}
	return version
}

// GenerateManifest renders server.json for version. The listed tools match
// the ones NewServer registers.
func GenerateManifest(version string) ([]byte, error) {
	version = releaseVersion(version)
	m := Manifest{
		Schema: manifestSchema,
		Name:   registryName,
		Description: "C and C++ code smell detection over stdio: " +
			"analyze_smells reports long functions, large classes, duplicates, deep nesting and more; " +
			"get_original_text returns the analyzed source",
		Version:    version,
		Repository: &Repository{URL: repositoryURL, Source: "github"},
		Packages: []Package{{
			RegistryType:     "oci",
			Identifier:       imageRepo + ":" + version,
			PackageArguments: []Argument{{Type: "positional", Value: "mcp"}},
			Transport:        Transport{Type: "stdio"},
		}},
	}
	return json.MarshalIndent(m, "", "  ")
}
