package notify

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TradeAlert carries the fields rendered into a trade broadcast
type TradeAlert struct {
	ID        string
	Crop      string
	Grade     string
	Price     decimal.Decimal
	Quantity  decimal.Decimal
	ValidTill time.Time
}

// Money renders an amount with two decimal places
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func TradeDetails(a TradeAlert) string {
	return "🌾 New Trade Alert!\n\n" +
		fmt.Sprintf("Crop: %s\n", a.Crop) +
		fmt.Sprintf("Grade: %s\n", a.Grade) +
		fmt.Sprintf("Price: ₹%s/qtl\n", Money(a.Price)) +
		fmt.Sprintf("Quantity: %s qtl\n", a.Quantity.String()) +
		fmt.Sprintf("Valid Till: %s", a.ValidTill.Format("02 Jan 2006 15:04"))
}

// AcceptInstruction is sent on its own so the supplier can forward it back verbatim
func AcceptInstruction(tradeID string) string {
	return "accept trade " + tradeID
}

func CounterInstruction(tradeID string) string {
	return fmt.Sprintf("counter %s <price>", tradeID)
}

func OrderConfirmation(orderID string, quantity, total decimal.Decimal, status string) string {
	return "🎉 Order Confirmed!\n\n" +
		fmt.Sprintf("Order ID: %s\n", orderID) +
		fmt.Sprintf("Quantity: %s qtl\n", quantity.String()) +
		fmt.Sprintf("Total Amount: ₹%s\n", Money(total)) +
		fmt.Sprintf("Status: %s", status)
}

func NegotiationUpdate(orderID string, counterOffer decimal.Decimal) string {
	return "💬 New Price Negotiation\n\n" +
		fmt.Sprintf("Order ID: %s\n", orderID) +
		fmt.Sprintf("Counter Offer: ₹%s/qtl", Money(counterOffer))
}

func TradeAccepted(price, quantity, total, rate, commission decimal.Decimal) string {
	return "Trade accepted successfully!\n" +
		"Waiting for broker confirmation.\n" +
		fmt.Sprintf("Price: ₹%s/qtl\n", Money(price)) +
		fmt.Sprintf("Quantity: %s qtl\n", quantity.String()) +
		fmt.Sprintf("Total amount: ₹%s\n", Money(total)) +
		fmt.Sprintf("Commission rate: %s%%\n", rate.String()) +
		fmt.Sprintf("Commission amount: ₹%s", Money(commission))
}

func CounterOfferSent(original, offer, quantity, total decimal.Decimal) string {
	return "Counter offer sent successfully!\n" +
		fmt.Sprintf("Original price: ₹%s/qtl\n", Money(original)) +
		fmt.Sprintf("Your offer: ₹%s/qtl\n", Money(offer)) +
		fmt.Sprintf("Quantity: %s qtl\n", quantity.String()) +
		fmt.Sprintf("Total amount: ₹%s", Money(total))
}

func CounterTooHigh(current decimal.Decimal) string {
	return fmt.Sprintf("Counter offer must be lower than the original price. Current price: ₹%s/qtl", Money(current))
}

func BrokerAccepted(orderID string, price, quantity, total decimal.Decimal) string {
	return "🎉 Broker has accepted the trade!\n" +
		fmt.Sprintf("Order ID: %s\n", orderID) +
		fmt.Sprintf("Price: ₹%s/qtl\n", Money(price)) +
		fmt.Sprintf("Quantity: %s qtl\n", quantity.String()) +
		fmt.Sprintf("Total amount: ₹%s", Money(total))
}

func PurchaseOrder(poNumber string, quantity, price, total decimal.Decimal) string {
	return "📋 New Purchase Order\n\n" +
		fmt.Sprintf("PO Number: %s\n", poNumber) +
		fmt.Sprintf("Quantity: %s qtl\n", quantity.String()) +
		fmt.Sprintf("Price: ₹%s/qtl\n", Money(price)) +
		fmt.Sprintf("Total Amount: ₹%s", Money(total))
}

func InvoiceRequest(invoiceID, orderID string, amount decimal.Decimal) string {
	return "📄 New Invoice Request!\n\n" +
		fmt.Sprintf("Order ID: %s\n", orderID) +
		fmt.Sprintf("Amount: ₹%s\n\n", Money(amount)) +
		"Please provide your invoice number by replying:\n" +
		fmt.Sprintf("invoice %s <your_invoice_number>", invoiceID)
}

func InvoiceNumberUpdated(invoiceID, number string, amount decimal.Decimal) string {
	return "📄 Invoice Number Updated!\n\n" +
		fmt.Sprintf("Invoice ID: %s\n", invoiceID) +
		fmt.Sprintf("Supplier Invoice Number: %s\n", number) +
		fmt.Sprintf("Amount: ₹%s", Money(amount))
}

func InvoiceGenerated(invoiceID string, amount decimal.Decimal, link string) string {
	return "📄 Invoice Generated!\n\n" +
		fmt.Sprintf("Invoice ID: %s\n", invoiceID) +
		fmt.Sprintf("Amount: ₹%s\n", Money(amount)) +
		fmt.Sprintf("Download: %s", link)
}

const (
	MsgTradeNotFound       = "Trade not found"
	MsgTradeInactive       = "This trade is no longer active"
	MsgNotSupplier         = "This number is not registered as a supplier"
	MsgOrderNotFound       = "Order not found"
	MsgNotOrderBroker      = "You are not authorized to respond to this order"
	MsgInvalidOrderStatus  = "Invalid order status for acceptance"
	MsgTradeConfirmed      = "Trade confirmed successfully!"
	MsgProcessingError     = "Sorry, there was an error processing your request."
	MsgInvoiceNumberSaved  = "Invoice number saved successfully!"
	MsgInvoiceNotFound     = "Invoice not found"
	MsgInvoiceNumberExists = "Invoice number already set"
)
