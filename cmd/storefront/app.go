package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"storefront/internal/catalog"
	"storefront/internal/localcart"
	"storefront/internal/session"
)

var errUsage = errors.New("usage")

const usage = `usage: storefront [flags] <command> [args]

commands:
  products [--category C]              list the catalog
  add <product-id>                     put one unit in the cart
  qty <line> <delta>                   change the quantity of a cart line
  remove <line>                        remove a cart line
  clear                                empty the cart
  show                                 print the cart
  login <email> <password>
  register <name> <email> <password> <confirm>
  logout
  whoami
  checkout [--yes]                     place the order
`

// app runs one storefront command against a loaded controller
type app struct {
	ctrl     *localcart.Controller
	sessions *session.Manager
	in       *bufio.Reader
	out      io.Writer
	category string
	yes      bool
}

func newApp(ctrl *localcart.Controller, sessions *session.Manager, in io.Reader, out io.Writer) *app {
	a := &app{ctrl: ctrl, sessions: sessions, in: bufio.NewReader(in), out: out}
	ctrl.On(localcart.ActionCheckout, sessions.CheckoutListener(ctrl, a.confirm))
	return a
}

// needsCatalog reports whether command reads products
func needsCatalog(command string) bool {
	return command == "products" || command == "add"
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "products":
		return a.products()
	case "add":
		if len(args) != 1 {
			return errUsage
		}
		return a.ctrl.Dispatch(ctx, localcart.Event{Action: localcart.ActionAdd, ProductID: catalog.ProductID(args[0])})
	case "qty":
		if len(args) != 2 {
			return errUsage
		}
		index, err := lineIndex(args[0])
		if err != nil {
			return err
		}
		delta, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("delta must be a number: %w", err)
		}
		return a.ctrl.Dispatch(ctx, localcart.Event{Action: localcart.ActionChangeQuantity, Index: index, Delta: delta})
	case "remove":
		if len(args) != 1 {
			return errUsage
		}
		index, err := lineIndex(args[0])
		if err != nil {
			return err
		}
		return a.ctrl.Dispatch(ctx, localcart.Event{Action: localcart.ActionRemove, Index: index})
	case "clear":
		return a.ctrl.Dispatch(ctx, localcart.Event{Action: localcart.ActionClear})
	case "show":
		a.render(a.ctrl.View())
		return nil
	case "login":
		if len(args) != 2 {
			return errUsage
		}
		user, err := a.sessions.Login(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Welcome, %s\n", user.Name)
		return nil
	case "register":
		if len(args) != 4 {
			return errUsage
		}
		user, err := a.sessions.Register(ctx, args[0], args[1], args[2], args[3])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Account created. Welcome, %s\n", user.Name)
		return nil
	case "logout":
		if err := a.sessions.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Logged out")
		return nil
	case "whoami":
		user, err := a.sessions.Current(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s <%s>\n", user.Name, user.Email)
		return nil
	case "checkout":
		if err := a.ctrl.Dispatch(ctx, localcart.Event{Action: localcart.ActionCheckout}); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Thank you for your purchase!")
		return nil
	default:
		return errUsage
	}
}

// lineIndex converts a 1-based line number as shown by show
func lineIndex(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("line must be a number: %w", err)
	}
	return n - 1, nil
}

func (a *app) confirm(totals localcart.Totals) bool {
	if a.yes {
		return true
	}
	fmt.Fprintf(a.out, "Total to pay: $%s (%d items). Confirm purchase? [y/N] ",
		totals.Total.StringFixed(2), totals.ItemCount)
	answer, _ := a.in.ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func (a *app) products() error {
	products := a.ctrl.Catalog()
	if len(products) == 0 {
		fmt.Fprintln(a.out, "No products available")
		return nil
	}

	filtered := products.Filter(a.category)
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE")
	for _, p := range filtered {
		fmt.Fprintf(w, "%s\t%s\t%s\t$%s\n", p.ID, p.Name, p.Category, p.Price.StringFixed(2))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "\nCategories: %s, %s\n", catalog.AllCategories, strings.Join(products.Categories(), ", "))
	return nil
}

// render prints the cart view
func (a *app) render(view localcart.View) {
	if view.State == localcart.Empty {
		fmt.Fprintln(a.out, "Your cart is empty")
		return
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tPRODUCT\tPRICE\tQTY\tTOTAL")
	for _, row := range view.Rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", row.Index+1, row.Name, row.UnitPrice, row.Quantity, row.LineTotal)
	}
	_ = w.Flush()

	fmt.Fprintf(a.out, "\nSubtotal: %s\nShipping: %s\nTotal:    %s\nItems:    %d\n",
		view.Subtotal, view.Shipping, view.Total, view.Badge)
}
