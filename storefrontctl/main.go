package main

import (
	"context"
	"log"
	"net/url"
	"os"
	"strconv"

	"github.com/docopt/docopt-go"

	"prokolesa.ru/storefront"
)

const StorefrontCtlVersion = "0.0.1"

var Out *log.Logger
var Err *log.Logger

func init() {
	Out = log.New(os.Stdout, "", 0)
	Err = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lshortfile)
}

func main() {
	usage := `Storefront control.

Storage and api settings come from the environment (or a local .env):
    PROKOLESA_API_URL      product api base url (default http://localhost:8000/api)
    PROKOLESA_STORAGE_DIR  directory for file-backed storage
    PROKOLESA_SQLITE_PATH  sqlite database path
    PROKOLESA_REDIS_ADDR   redis address for storage and cross-process sync
    PROKOLESA_SYNC_URL     websocket relay url for cross-process sync

Usage:
    storefrontctl catalog [--type=<product_type>] [--sort=<sort>] [--page=<page>]
        [--brand=<brand>]... [--season=<season>] [--in_stock]
        [--min_price=<min_price>] [--max_price=<max_price>]
    storefrontctl cart add <product_id> [--quantity=<quantity>] [--type=<product_type>]
    storefrontctl cart remove <product_id>
    storefrontctl cart set <product_id> <quantity>
    storefrontctl cart list
    storefrontctl cart clear
    storefrontctl favorites toggle <product_id>
    storefrontctl favorites list
    storefrontctl favorites clear
    storefrontctl orders list

Options:
    -h --help                  Show this screen.
    --version                  Show version.
    --type=<product_type>      tire or wheel [default: tire]
    --sort=<sort>              Sort key, e.g. price or -sales_count.
    --page=<page>              Page number [default: 1].
    --brand=<brand>            Filter by brand slug. Repeatable.
    --season=<season>          Tire season filter.
    --in_stock                 Only products in stock.
    --min_price=<min_price>    Lower price bound.
    --max_price=<max_price>    Upper price bound.
    --quantity=<quantity>      Quantity to add [default: 1].`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], StorefrontCtlVersion)
	if err != nil {
		panic(err)
	}

	cancelCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sf := storefront.NewStorefrontFromEnv(cancelCtx)
	defer sf.Close()

	if catalog_, _ := opts.Bool("catalog"); catalog_ {
		catalog(sf, opts)
	} else if cart_, _ := opts.Bool("cart"); cart_ {
		if add_, _ := opts.Bool("add"); add_ {
			cartAdd(sf, opts)
		} else if remove_, _ := opts.Bool("remove"); remove_ {
			cartRemove(sf, opts)
		} else if set_, _ := opts.Bool("set"); set_ {
			cartSet(sf, opts)
		} else if list_, _ := opts.Bool("list"); list_ {
			cartList(sf)
		} else if clear_, _ := opts.Bool("clear"); clear_ {
			sf.Cart().Clear()
		}
	} else if favorites_, _ := opts.Bool("favorites"); favorites_ {
		if toggle_, _ := opts.Bool("toggle"); toggle_ {
			favoritesToggle(sf, opts)
		} else if list_, _ := opts.Bool("list"); list_ {
			favoritesList(sf)
		} else if clear_, _ := opts.Bool("clear"); clear_ {
			sf.Favorites().Clear()
		}
	} else if orders_, _ := opts.Bool("orders"); orders_ {
		if list_, _ := opts.Bool("list"); list_ {
			ordersList(sf)
		}
	}
}

func catalog(sf *storefront.Storefront, opts docopt.Opts) {
	query := url.Values{}
	if productType, err := opts.String("--type"); err == nil {
		query.Set("product_type", productType)
	}
	if brands, ok := opts["--brand"].([]string); ok && 0 < len(brands) {
		for _, brand := range brands {
			query.Add("brand", brand)
		}
		query.Set("search_type", "params")
	}
	if season, err := opts.String("--season"); err == nil && season != "" {
		query.Set("season", season)
		query.Set("search_type", "params")
	}

	session := sf.OpenCatalog(query)
	defer session.Close()

	if sort, err := opts.String("--sort"); err == nil && sort != "" {
		session.Apply(storefront.SetSort{SortBy: sort})
	}
	if minPrice, err := opts.String("--min_price"); err == nil && minPrice != "" {
		session.Apply(storefront.Edit{Field: storefront.FieldMinPrice, Value: minPrice})
	}
	if maxPrice, err := opts.String("--max_price"); err == nil && maxPrice != "" {
		session.Apply(storefront.Edit{Field: storefront.FieldMaxPrice, Value: maxPrice})
	}
	if inStock, _ := opts.Bool("--in_stock"); inStock {
		session.Apply(storefront.Edit{Field: storefront.FieldInStock, Checked: true})
	}
	session.Apply(storefront.ApplyFilters{})
	if page, err := opts.Int("--page"); err == nil && 1 < page {
		session.Apply(storefront.SetPage{Page: page})
	}

	updates := make(chan *storefront.CatalogUpdate, 8)
	remove := session.AddResultCallback(func(update *storefront.CatalogUpdate) {
		select {
		case updates <- update:
		default:
		}
	})
	defer remove()

	session.Refresh()

	update := <-updates
	if update.Err != nil {
		Err.Printf("catalog error: %s", update.Err)
		return
	}
	Out.Printf("page %d: %d of %d products", update.Page, len(update.Products), update.TotalCount)
	for _, product := range update.Products {
		Out.Printf("  %6d  %-40s  %s", product.Id, product.Name, product.Price)
	}
}

func cartAdd(sf *storefront.Storefront, opts docopt.Opts) {
	productId := requireProductId(opts)
	quantity, err := opts.Int("--quantity")
	if err != nil {
		quantity = 1
	}
	productType := storefront.ProductTypeTire
	if productType_, err := opts.String("--type"); err == nil && productType_ == "wheel" {
		productType = storefront.ProductTypeWheel
	}
	sf.Cart().AddItem(productId, quantity, productType)
	Out.Printf("cart: %d items", sf.Cart().GetItemCount())
}

func cartRemove(sf *storefront.Storefront, opts docopt.Opts) {
	sf.Cart().RemoveItem(requireProductId(opts))
	Out.Printf("cart: %d items", sf.Cart().GetItemCount())
}

func cartSet(sf *storefront.Storefront, opts docopt.Opts) {
	productId := requireProductId(opts)
	quantityStr, _ := opts.String("<quantity>")
	quantity, err := strconv.Atoi(quantityStr)
	if err != nil {
		Err.Fatalf("invalid quantity (%s)", quantityStr)
	}
	sf.Cart().UpdateQuantity(productId, quantity)
	Out.Printf("cart: %d items", sf.Cart().GetItemCount())
}

func cartList(sf *storefront.Storefront) {
	items := sf.Cart().GetItems()
	if len(items) == 0 {
		Out.Printf("cart is empty")
		return
	}
	for _, item := range items {
		Out.Printf("  %6d  x%-3d  %s", item.ProductId, item.Quantity, item.ProductType)
	}
	Out.Printf("total %d items", sf.Cart().GetItemCount())
}

func favoritesToggle(sf *storefront.Storefront, opts docopt.Opts) {
	productId := requireProductId(opts)
	if sf.Favorites().ToggleItem(productId) {
		Out.Printf("%d added to favorites", productId)
	} else {
		Out.Printf("%d removed from favorites", productId)
	}
}

func favoritesList(sf *storefront.Storefront) {
	items := sf.Favorites().GetItems()
	if len(items) == 0 {
		Out.Printf("no favorites")
		return
	}
	for _, item := range items {
		Out.Printf("  %6d  added %s", item.ProductId, item.AddedAt)
	}
}

func ordersList(sf *storefront.Storefront) {
	orders := sf.Orders().GetOrders()
	if len(orders) == 0 {
		Out.Printf("no orders")
		return
	}
	for _, order := range orders {
		Out.Printf("  %s  %s  %.2f  %s",
			order.OrderNumber,
			order.Date,
			order.Total,
			storefront.StatusText(order.Status),
		)
	}
}

func requireProductId(opts docopt.Opts) int {
	productIdStr, _ := opts.String("<product_id>")
	productId, err := strconv.Atoi(productIdStr)
	if err != nil {
		Err.Fatalf("invalid product_id (%s)", productIdStr)
	}
	return productId
}
