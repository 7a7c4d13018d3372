package main

import (
	"testing"

	"go.uber.org/fx"
)

func TestCreateApp(t *testing.T) {
	if err := fx.ValidateApp(CreateApp()); err != nil {
		t.Fatal(err)
	}
}
