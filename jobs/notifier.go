package jobs

import (
	"context"
	"fmt"

	"github.com/supplylink/supplylink/internal/actions"
	"github.com/supplylink/supplylink/internal/vendors"
)

// VendorNotifier delivers vendor status notifications through the email
// queue. It satisfies the vendor service's Notifier port.
type VendorNotifier struct {
	Client *Client
}

func (n *VendorNotifier) StatusChanged(ctx context.Context, vendor vendors.Vendor, previous vendors.VendorStatus) error {
	if n.Client == nil || vendor.ContactEmail == "" {
		return nil
	}
	body := fmt.Sprintf("Hello %s,\n\nYour account status changed from %s to %s.", vendor.Name, previous, vendor.Status)
	if vendor.StatusReason != "" {
		body += fmt.Sprintf("\nReason: %s", vendor.StatusReason)
	}
	if vendor.Status == vendors.StatusPending && previous != vendors.StatusPending {
		body += "\nYour profile or documents changed and are awaiting re-review."
	}
	_, err := n.Client.EnqueueSendEmail(ctx, SendEmailPayload{
		To:      vendor.ContactEmail,
		Subject: fmt.Sprintf("Account status: %s", vendor.Status),
		Body:    body,
	})
	return err
}

// VendorDirectory resolves vendor contact details for notifications.
type VendorDirectory interface {
	Get(ctx context.Context, id string) (vendors.Vendor, error)
}

// ActionNotifier alerts the owning vendor when an admin raises a change
// request against one of their orders. It satisfies the action service's
// Notifier port.
type ActionNotifier struct {
	Client  *Client
	Vendors VendorDirectory
}

func (n *ActionNotifier) ActionProposed(ctx context.Context, request actions.Request) error {
	if n.Client == nil || n.Vendors == nil {
		return nil
	}
	vendor, err := n.Vendors.Get(ctx, request.VendorID)
	if err != nil {
		return err
	}
	if vendor.ContactEmail == "" {
		return nil
	}
	body := fmt.Sprintf("Hello %s,\n\nA %s request was raised against order %s:\n%s\n\nPlease review and respond in the portal.",
		vendor.Name, request.Type, request.OrderID, request.Message)
	_, err = n.Client.EnqueueSendEmail(ctx, SendEmailPayload{
		To:      vendor.ContactEmail,
		Subject: fmt.Sprintf("Action required: %s request on an order", request.Type),
		Body:    body,
	})
	return err
}
