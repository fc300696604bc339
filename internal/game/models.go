/*
Package game
File: models.go
Description:
    Defines the data structures used throughout the bakery.
    This file serves as the "schema" for the application, mapping directly to
    the YAML bakery file and the JSON snapshots pushed to renderers.

    No logic is performed here; this file is strictly for type definitions.
*/

package game

// CatalogItem is one dessert on the bakery shelf.
// Items are created once at startup and never mutated.
type CatalogItem struct {
	Key                 string `yaml:"key" json:"key"`             // Stable ID (e.g., "cupcake")
	Name                string `yaml:"name" json:"name"`           // Display name
	ImageRef            string `yaml:"image_ref" json:"image_ref"` // Opaque handle to the visual asset
	UnitPrice           int64  `yaml:"price" json:"price"`         // Revenue earned per sale while this item is current
	ActivationThreshold int64  `yaml:"threshold" json:"threshold"` // Cumulative sales at which this item becomes current
}

// Bakery is the root configuration struct, mapping to the entire 'bakery.yaml' file.
type Bakery struct {
	Name      string        `yaml:"name"`
	ShareText string        `yaml:"share_text"` // fmt template: units sold, then revenue
	Items     []CatalogItem `yaml:"items"`
}

// SalesState is the mutable session data owned by the Engine.
type SalesState struct {
	UnitsSold    int64
	Revenue      int64
	CurrentIndex int
}

// Snapshot is the immutable, read-only copy of SalesState handed to renderers.
// It is a plain value; observers receive their own copy.
type Snapshot struct {
	Session         string `json:"session"`
	UnitsSold       int64  `json:"units_sold"`
	Revenue         int64  `json:"revenue"`
	CurrentIndex    int    `json:"current_index"`
	CurrentImageRef string `json:"current_image_ref"`
	CurrentName     string `json:"current_name"`
	CurrentPrice    int64  `json:"current_price"`
}

// Observer receives every published Snapshot.
type Observer func(Snapshot)
