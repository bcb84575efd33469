package main

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"

	"prokolesa.ru/storefront"
)

func captureOut() *bytes.Buffer {
	out := &bytes.Buffer{}
	Out = log.New(out, "", 0)
	return out
}

func TestCartList(t *testing.T) {
	out := captureOut()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sf := storefront.NewStorefrontWithDefaults(ctx)
	defer sf.Close()

	cartList(sf)
	assert.Equal(t, strings.Contains(out.String(), "cart is empty"), true)

	sf.Cart().AddItem(42, 3, storefront.ProductTypeTire)
	out.Reset()
	cartList(sf)
	assert.Equal(t, strings.Contains(out.String(), "42"), true)
	assert.Equal(t, strings.Contains(out.String(), "x3"), true)
	assert.Equal(t, strings.Contains(out.String(), "total 3 items"), true)
}

func TestFavoritesList(t *testing.T) {
	out := captureOut()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sf := storefront.NewStorefrontWithDefaults(ctx)
	defer sf.Close()

	favoritesList(sf)
	assert.Equal(t, strings.Contains(out.String(), "no favorites"), true)

	sf.Favorites().AddItem(7)
	out.Reset()
	favoritesList(sf)
	assert.Equal(t, strings.Contains(out.String(), "7"), true)
}
