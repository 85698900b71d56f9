package chat

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Kind identifies what an inbound chat message asks for
type Kind int

const (
	KindHelp Kind = iota
	KindUsage
	KindAcceptTrade
	KindCounterOffer
	KindBrokerAccept
	KindInvoiceNumber
)

const (
	UsageAccept  = "Please provide a trade ID. Format: accept trade <trade_id>"
	UsageCounter = "Please provide trade ID and price. Format: counter <trade_id> <price>"
	UsagePrice   = "Please provide a valid price"
	UsageBroker  = "Please provide an order ID. Format: broker accept <order_id>"
	UsageInvoice = "Please provide invoice ID and number. Format: invoice <invoice_id> <invoice_number>"

	HelpText = "Available commands:\n" +
		"1. accept trade <trade_id>\n" +
		"2. counter <trade_id> <price>\n" +
		"3. broker accept <order_id>\n" +
		"4. invoice <invoice_id> <invoice_number>"
)

// Command is a parsed chat message. Reply is set for KindHelp and KindUsage.
type Command struct {
	Kind      Kind
	TradeID   string
	OrderID   string
	InvoiceID string
	Number    string
	Price     decimal.Decimal
	Reply     string
}

// Parse matches text against the command prefixes. Matching ignores case;
// arguments keep the case they were sent with.
func Parse(text string) Command {
	lower := strings.ToLower(strings.TrimSpace(text))
	tokens := strings.Fields(text)

	switch {
	case strings.HasPrefix(lower, "broker accept"):
		if len(tokens) < 3 {
			return usage(UsageBroker)
		}
		return Command{Kind: KindBrokerAccept, OrderID: tokens[2]}

	case strings.HasPrefix(lower, "accept"):
		if len(tokens) < 3 {
			return usage(UsageAccept)
		}
		return Command{Kind: KindAcceptTrade, TradeID: tokens[2]}

	case strings.HasPrefix(lower, "counter"):
		if len(tokens) < 3 {
			return usage(UsageCounter)
		}
		price, err := decimal.NewFromString(tokens[2])
		if err != nil {
			return usage(UsagePrice)
		}
		// prices are kept to the paisa
		if price = price.Round(2); !price.IsPositive() {
			return usage(UsagePrice)
		}
		return Command{Kind: KindCounterOffer, TradeID: tokens[1], Price: price}

	case strings.HasPrefix(lower, "invoice"):
		if len(tokens) < 3 {
			return usage(UsageInvoice)
		}
		return Command{Kind: KindInvoiceNumber, InvoiceID: tokens[1], Number: tokens[2]}
	}
	return Command{Kind: KindHelp, Reply: HelpText}
}

func usage(reply string) Command {
	return Command{Kind: KindUsage, Reply: reply}
}
