package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter/console"
	"github.com/niksmo/storefront/internal/app"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/sigctx"
	"github.com/spf13/pflag"
)

type flags struct {
	email      string
	password   string
	admin      bool
	category   string
	register   bool
	addProduct int64
	quantity   int
	updateLine int64
	setQty     int
	removeLine int64
	toggle     int64
	logout     bool
}

func parseFlags() flags {
	var f flags
	fs := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	fs.String("config", "/config.yaml", "config file")
	fs.StringVar(&f.email, "email", "", "login email")
	fs.StringVar(&f.password, "password", "", "login password")
	fs.BoolVar(&f.admin, "admin", false, "log in with the admin account")
	fs.BoolVar(&f.register, "register", false, "register the account before logging in")
	fs.StringVar(&f.category, "category", "", "catalog category filter")
	fs.Int64Var(&f.addProduct, "add-product", 0, "product id to add to the cart")
	fs.IntVar(&f.quantity, "quantity", 1, "quantity for --add-product")
	fs.Int64Var(&f.updateLine, "update-line", 0, "cart line item id to change")
	fs.IntVar(&f.setQty, "set-quantity", 1, "new quantity for --update-line")
	fs.Int64Var(&f.removeLine, "remove-line", 0, "cart line item id to remove")
	fs.Int64Var(&f.toggle, "toggle-wishlist", 0, "product id to toggle in the wishlist")
	fs.BoolVar(&f.logout, "logout", false, "log out when done")
	_ = fs.Parse(os.Args[1:])
	return f
}

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	f := parseFlags()
	cfg := config.Load()

	messages := console.NewNotifier(os.Stdout)
	storefront := app.New(sigCtx, cfg, messages)
	defer storefront.Close()

	if err := run(sigCtx, storefront, cfg, f, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		storefront.Close()
		os.Exit(1)
	}
}

func run(
	ctx context.Context, a *app.App, cfg config.Config, f flags, out io.Writer,
) error {
	if f.register {
		if err := a.Session.Register(ctx, f.email, f.password); err != nil {
			return err
		}
	}

	if f.email != "" {
		role := domain.RoleUser
		if f.admin {
			role = domain.RoleAdmin
		}
		if _, err := a.Session.Login(ctx, role, f.email, f.password); err != nil {
			return err
		}
	}

	category := domain.Category(cfg.Catalog.DefaultCategory)
	if f.category != "" {
		category = domain.Category(f.category)
	}
	if err := a.Catalog.SetCategory(ctx, category); err != nil {
		return err
	}
	printCatalog(out, a)

	if a.Session.LoggedIn() {
		if err := a.Cart.Load(ctx); err != nil {
			return err
		}
		if _, err := a.Wishlist.Load(ctx); err != nil && !errors.Is(err, domain.ErrFetchFailed) {
			return err
		}
	}

	if f.addProduct != 0 {
		p, err := a.Catalog.Product(ctx, f.addProduct)
		if err != nil {
			return err
		}
		if _, err := a.Cart.AddItem(ctx, p, f.quantity); err != nil {
			return err
		}
	}

	if f.updateLine != 0 {
		if err := a.Cart.SetQuantity(ctx, f.updateLine, f.setQty); err != nil {
			return err
		}
	}

	if f.removeLine != 0 {
		confirm := console.Confirm(os.Stdin, out)
		if err := a.Cart.RemoveItem(ctx, f.removeLine, confirm); err != nil {
			return err
		}
	}

	if f.toggle != 0 {
		p, err := a.Catalog.Product(ctx, f.toggle)
		if err != nil {
			return err
		}
		member, err := a.Wishlist.Toggle(ctx, p)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s wishlisted: %t\n", p.Name, member)
	}

	if a.Session.LoggedIn() {
		printCart(out, a)
	}

	if f.logout {
		a.Session.Logout(ctx)
	}
	return nil
}

func printCatalog(out io.Writer, a *app.App) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "\nCatalog (%s)\n", a.Catalog.Category())
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK\tWISHLIST")
	for _, p := range a.Catalog.Products() {
		mark := ""
		if a.Catalog.IsWishlisted(p.ID) {
			mark = "*"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n",
			p.ID, p.Name, p.Category, p.Price.StringFixed(2), p.Stock, mark)
	}
}

func printCart(out io.Writer, a *app.App) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "\nCart (%d items)\n", a.Cart.Count())
	fmt.Fprintln(w, "LINE\tPRODUCT\tQTY\tPRICE")
	for _, li := range a.Cart.Items() {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n",
			li.ID, li.Product.Name, li.Quantity, li.Product.Price.StringFixed(2))
	}

	t := a.Cart.Totals()
	subtotal, shipping, tax, total := t.Format()
	fmt.Fprintf(w, "\nSubtotal\t%s\n", subtotal)
	if t.FreeShipping() {
		fmt.Fprintf(w, "Shipping\tFREE\n")
	} else {
		fmt.Fprintf(w, "Shipping\t%s\n", shipping)
	}
	fmt.Fprintf(w, "Tax (8%%)\t%s\n", tax)
	fmt.Fprintf(w, "Total\t%s\n", total)
}
