// Package gate guards checkout against proceeding without a persisted
// delivery address. It is the single check consulted before any transition
// out of method selection.
package gate

import (
	"context"
	"errors"

	"medicart/models"
)

var ErrUnknownAddress = errors.New("selected address is not in the loaded list")

// Lister is the external address-listing collaborator.
type Lister interface {
	ListAddresses(ctx context.Context) ([]models.Address, error)
}

type Gate struct {
	addresses []models.Address
	selected  int64
}

func New() *Gate {
	return &Gate{}
}

// Restore rebuilds a gate from a stored checkout session's address snapshot.
func Restore(addresses []models.Address, selected int64) *Gate {
	return &Gate{addresses: addresses, selected: selected}
}

// Load fetches the user's addresses and auto-selects the default-flagged
// one, else the first, else leaves the selection empty.
func (g *Gate) Load(ctx context.Context, svc Lister) error {
	addresses, err := svc.ListAddresses(ctx)
	if err != nil {
		return err
	}

	g.addresses = addresses
	g.selected = 0
	for _, a := range addresses {
		if a.IsDefault {
			g.selected = a.ID
			break
		}
	}
	if g.selected == 0 && len(addresses) > 0 {
		g.selected = addresses[0].ID
	}
	return nil
}

func (g *Gate) Select(id int64) error {
	for _, a := range g.addresses {
		if a.ID == id {
			g.selected = id
			return nil
		}
	}
	return ErrUnknownAddress
}

func (g *Gate) SelectedID() int64 {
	return g.selected
}

func (g *Gate) Addresses() []models.Address {
	return g.addresses
}

// CanProceed is true iff an address is selected and the cart is non-empty.
func (g *Gate) CanProceed(cart models.Cart) bool {
	return g.selected > 0 && !cart.IsEmpty()
}
