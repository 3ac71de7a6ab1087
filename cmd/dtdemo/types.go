package main

import (
	"reflect"

	"github.com/k4210/dtengine/dt"
	"github.com/k4210/dtengine/pkg/types"
)

// Position is a small value struct nested inside Actor, demonstrating a
// KindStruct property.
type Position struct {
	X float32 `dt:"x"`
	Y float32 `dt:"y"`
}

// Actor is the sample registered type dtdemo's subcommands operate on:
// scalars, a string, a nested struct, a map, and a vector. It has no
// fixed-length array and no object reference field.
type Actor struct {
	Name      string           `dt:"name"`
	Health    int32            `dt:"health"`
	Pos       Position         `dt:"pos"`
	Tags      map[string]int32 `dt:"tags"`
	Inventory []string         `dt:"inventory"`
}

var actorStructID types.StructID

func init() {
	registry := dt.DefaultRegistry()
	if _, err := dt.NewStructureBuilder(registry, reflect.TypeOf(Position{})).Build(); err != nil {
		panic(err)
	}
	actor, err := dt.NewStructureBuilder(registry, reflect.TypeOf(Actor{})).Build()
	if err != nil {
		panic(err)
	}
	actorStructID = actor.ID
}

func sampleActor() Actor {
	return Actor{
		Name:   "Hero",
		Health: 100,
		Pos:    Position{X: 1.5, Y: -2.25},
		Tags:   map[string]int32{"class": 1, "level": 12},
		Inventory: []string{
			"sword",
			"shield",
		},
	}
}
