package notify

import (
	"fmt"

	"github.com/erazemk/reunite/internal/model"
)

const (
	defaultName  = "Reunite User"
	defaultTitle = "Reported Item"
)

// Templates builds the messages sent on catalog events. SiteLink is
// included in every message.
type Templates struct {
	SiteLink string
}

func (t Templates) message(email, name, subject, body, title string) Message {
	if name == "" {
		name = defaultName
	}
	if title == "" {
		title = defaultTitle
	}
	return Message{
		ToEmail:   email,
		ToName:    name,
		Subject:   subject,
		Body:      body,
		ItemTitle: title,
		SiteLink:  t.SiteLink,
	}
}

// ReportReceived confirms a new report to its reporter.
func (t Templates) ReportReceived(it *model.Item) Message {
	return t.message(it.ContactEmail, it.ContactName, "Report Received",
		"We have successfully logged your report in our system. An administrator will review it shortly.",
		it.Title)
}

// ItemApproved tells the reporter the item is now public.
func (t Templates) ItemApproved(it *model.Item) Message {
	return t.message(it.ContactEmail, it.ContactName, "Item Approved",
		"Your report has been approved and is now visible in the public inventory.",
		it.Title)
}

// ItemRejected tells the reporter the item was not published.
func (t Templates) ItemRejected(it *model.Item) Message {
	return t.message(it.ContactEmail, it.ContactName, "Item Update",
		"Your report has been reviewed and was not approved for the public inventory. Please contact administration for more details.",
		it.Title)
}

// ClaimSubmitted tells the reporter that someone claimed their item.
func (t Templates) ClaimSubmitted(it *model.Item) Message {
	return t.message(it.ContactEmail, it.ContactName, "New Claim Submitted",
		fmt.Sprintf("A claim has been submitted for your item %q. Please log in to the portal to review the claim details.", it.Title),
		it.Title)
}

// ClaimReceived confirms a claim to the claimant.
func (t Templates) ClaimReceived(c *model.Claim, itemTitle string) Message {
	return t.message(c.ClaimantEmail, c.ClaimantName, "Claim Received",
		"Your claim has been submitted and is currently being reviewed by our administration team.",
		itemTitle)
}

// ClaimVerified tells the claimant the claim was approved.
func (t Templates) ClaimVerified(c *model.Claim, itemTitle string) Message {
	if itemTitle == "" {
		itemTitle = "Your Item"
	}
	return t.message(c.ClaimantEmail, c.ClaimantName, "Claim Verified",
		"Your claim has been verified! You can now arrange to retrieve your item from the administration office.",
		itemTitle)
}
