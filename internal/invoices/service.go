package invoices

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"agri-broker/broker-portal/broker-portal-backend/internal/activity"
	"agri-broker/broker-portal/broker-portal-backend/internal/orders"
	"agri-broker/broker-portal/broker-portal-backend/internal/users"
	"agri-broker/broker-portal/broker-portal-backend/pkg/apperrors"
	"agri-broker/broker-portal/broker-portal-backend/pkg/notify"
	"agri-broker/broker-portal/broker-portal-backend/pkg/storage"
)

// Recorder is the slice of the activity log invoices need
type Recorder interface {
	Get(ctx context.Context, id string) (*activity.Log, error)
	Record(ctx context.Context, entry *activity.Log) error
}

// Notifier sends a best-effort message to a phone
type Notifier interface {
	Notify(ctx context.Context, phone, body string) bool
}

// Options holds the base URLs used in links sent to users
type Options struct {
	FrontendURL string
	PublicURL   string
}

// InvoiceRequest is the body of POST /broker/invoice and /broker/invoice/pdf
type InvoiceRequest struct {
	OrderID         string          `json:"order_id"`
	BillFrom        string          `json:"bill_from"`
	ShipFrom        string          `json:"ship_from"`
	BillTo          string          `json:"bill_to"`
	ShipTo          string          `json:"ship_to"`
	Items           []Item          `json:"items"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	ShippingCharges decimal.Decimal `json:"shipping_charges"`
	FinalAmount     decimal.Decimal `json:"final_amount"`
	PONumber        string          `json:"po_number"`
}

// NumberRequest is the body of PUT /supplier/invoice/:id/number
type NumberRequest struct {
	InvoiceNumber string `json:"invoice_number"`
}

// Prefill is the invoice form pre-populated from an activity log
type Prefill struct {
	Log                *activity.Log   `json:"log_details"`
	Order              *orders.Order   `json:"order"`
	CurrentSupplier    *users.Contact  `json:"current_supplier"`
	Invoice            InvoiceRequest  `json:"invoice"`
	AvailableSuppliers []users.Contact `json:"available_suppliers"`
}

// RequestResult is returned after an invoice request is sent to a supplier
type RequestResult struct {
	Message     string   `json:"message"`
	Invoice     *Invoice `json:"invoice"`
	InvoiceLink string   `json:"invoice_link"`
}

// PDFResult is returned after an invoice PDF is generated and stored
type PDFResult struct {
	Message string   `json:"message"`
	Invoice *Invoice `json:"invoice"`
	PDFURL  string   `json:"pdf_url"`
}

// Service issues invoices and their PDFs
type Service struct {
	repo     Repository
	orders   orders.Repository
	users    users.Repository
	recorder Recorder
	notifier Notifier
	store    storage.FileStore
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(
	repo Repository,
	orderRepo orders.Repository,
	userRepo users.Repository,
	recorder Recorder,
	notifier Notifier,
	store storage.FileStore,
	opts Options,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:     repo,
		orders:   orderRepo,
		users:    userRepo,
		recorder: recorder,
		notifier: notifier,
		store:    store,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// PrefillFromLog builds an invoice draft for the order behind a broker's log entry
func (s *Service) PrefillFromLog(ctx context.Context, brokerID, logID string) (*Prefill, error) {
	entry, err := s.recorder.Get(ctx, logID)
	if err != nil {
		return nil, err
	}
	if entry.BrokerID != brokerID {
		return nil, apperrors.NotFound("Log not found")
	}

	order, err := s.orderForLog(ctx, entry)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperrors.NotFound("Order not found")
	}

	suppliers, err := s.users.ListByRole(ctx, users.RoleSupplier)
	if err != nil {
		return nil, err
	}
	contacts := make([]users.Contact, 0, len(suppliers))
	for i := range suppliers {
		contacts = append(contacts, *users.ContactOf(&suppliers[i]))
	}

	draft := InvoiceRequest{
		OrderID:     order.ID,
		ShipFrom:    order.SupplierID,
		TotalAmount: order.TotalAmount,
		FinalAmount: order.TotalAmount,
	}
	if order.Supplier != nil {
		draft.BillFrom = partyLines(order.Supplier)
	}
	if order.Broker != nil {
		draft.BillTo = partyLines(order.Broker)
	}
	if order.Trade != nil {
		draft.Items = []Item{{
			Crop:        order.Trade.Crop,
			Price:       order.EffectivePrice(),
			Quantity:    order.Quantity,
			TotalAmount: order.TotalAmount,
		}}
	}

	return &Prefill{
		Log:                entry,
		Order:              order,
		CurrentSupplier:    users.ContactOf(order.Supplier),
		Invoice:            draft,
		AvailableSuppliers: contacts,
	}, nil
}

// orderForLog resolves the order a log refers to; trade logs use the trade's latest order
func (s *Service) orderForLog(ctx context.Context, entry *activity.Log) (*orders.Order, error) {
	switch entry.EntityType {
	case activity.EntityOrder:
		return s.orders.GetByID(ctx, entry.EntityID)
	case activity.EntityTrade:
		latest, err := s.orders.LatestForTrade(ctx, entry.EntityID)
		if err != nil || latest == nil {
			return nil, err
		}
		return s.orders.GetByID(ctx, latest.ID)
	}
	return nil, apperrors.Validation("Log does not refer to an order")
}

// RequestInvoice creates a pending invoice and asks the supplier for its number
func (s *Service) RequestInvoice(ctx context.Context, brokerID string, req InvoiceRequest) (*RequestResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := s.checkOrder(ctx, brokerID, req.OrderID); err != nil {
		return nil, err
	}

	supplier, err := s.users.GetByID(ctx, req.ShipFrom)
	if err != nil {
		return nil, err
	}
	if supplier == nil || supplier.Role != users.RoleSupplier {
		return nil, apperrors.NotFound("Supplier not found")
	}

	invoice := build(brokerID, req, StatusPending)
	if err := s.repo.Create(ctx, invoice); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, supplier.Phone, notify.InvoiceRequest(invoice.ID, invoice.OrderID, invoice.FinalAmount))
	s.logger.Info("Invoice requested",
		zap.String("invoice_id", invoice.ID),
		zap.String("order_id", invoice.OrderID),
		zap.String("supplier_id", supplier.ID),
	)

	return &RequestResult{
		Message:     "Invoice request created successfully",
		Invoice:     invoice,
		InvoiceLink: strings.TrimRight(s.opts.FrontendURL, "/") + "/invoices/" + invoice.ID,
	}, nil
}

// SetInvoiceNumber stores the supplier's own invoice number once and tells the broker
func (s *Service) SetInvoiceNumber(ctx context.Context, supplierID, invoiceID, number string) (*Invoice, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, apperrors.Validation("Invoice number is required")
	}

	invoice, err := s.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil || invoice.ShipFrom != supplierID {
		return nil, apperrors.NotFound("Invoice not found")
	}
	if invoice.InvoiceNumber != nil {
		return nil, apperrors.Validation("Invoice number already set")
	}

	taken, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if taken != nil {
		return nil, apperrors.Conflict("Invoice number %s is already in use", number)
	}

	updated, err := s.repo.SetNumber(ctx, invoice.ID, number)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, apperrors.Validation("Invoice number already set")
	}
	invoice.InvoiceNumber = &number

	broker, err := s.users.GetByID(ctx, invoice.BrokerID)
	if err != nil {
		s.logger.Warn("Failed to load broker for invoice", zap.String("invoice_id", invoice.ID), zap.Error(err))
	} else if broker != nil {
		s.notifier.Notify(ctx, broker.Phone, notify.InvoiceNumberUpdated(invoice.ID, number, invoice.FinalAmount))
	}
	return invoice, nil
}

// GeneratePDF renders a draft invoice, stores the PDF and records the event
func (s *Service) GeneratePDF(ctx context.Context, brokerID string, req InvoiceRequest) (*PDFResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := s.checkOrder(ctx, brokerID, req.OrderID); err != nil {
		return nil, err
	}

	invoice := build(brokerID, req, StatusDraft)
	invoice.ID = uuid.NewString()
	invoice.CreatedAt = s.now()

	view := *invoice
	if supplier, err := s.users.GetByID(ctx, invoice.ShipFrom); err == nil && supplier != nil {
		view.ShipFrom = partyLines(supplier)
	}
	data, err := Render(view)
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to generate invoice PDF")
	}

	name := fmt.Sprintf("invoice_%s.pdf", strings.ToLower(ulid.Make().String()))
	if err := s.store.Save(ctx, name, data, "application/pdf"); err != nil {
		return nil, apperrors.Internal(err, "Failed to store invoice PDF")
	}
	invoice.FileName = name
	invoice.InvoiceURL = strings.TrimRight(s.opts.PublicURL, "/") + "/broker/invoices/" + name

	if err := s.repo.Create(ctx, invoice); err != nil {
		return nil, err
	}

	err = s.recorder.Record(ctx, &activity.Log{
		BrokerID:   brokerID,
		Type:       activity.TypeInvoiceGenerated,
		Message:    fmt.Sprintf("Invoice generated for order %s", invoice.OrderID),
		EntityType: activity.EntityInvoice,
		EntityID:   invoice.ID,
		ActorID:    brokerID,
		ActorType:  activity.ActorBroker,
		Details: datatypes.JSONMap{
			"file_name":    name,
			"final_amount": notify.Money(invoice.FinalAmount),
		},
	})
	if err != nil {
		s.logger.Warn("Failed to record invoice log", zap.String("invoice_id", invoice.ID), zap.Error(err))
	}

	if broker, err := s.users.GetByID(ctx, brokerID); err == nil && broker != nil {
		s.notifier.Notify(ctx, broker.Phone, notify.InvoiceGenerated(invoice.ID, invoice.FinalAmount, invoice.InvoiceURL))
	}

	s.logger.Info("Invoice PDF generated", zap.String("invoice_id", invoice.ID), zap.String("file", name))
	return &PDFResult{
		Message: "Invoice PDF generated successfully",
		Invoice: invoice,
		PDFURL:  invoice.InvoiceURL,
	}, nil
}

// Open returns a stored invoice PDF by file name
func (s *Service) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	clean, err := storage.CleanName(name)
	if err != nil || !strings.HasSuffix(clean, ".pdf") {
		return nil, apperrors.NotFound("Invoice not found")
	}
	rc, err := s.store.Open(ctx, clean)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.NotFound("Invoice not found")
	}
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to read invoice")
	}
	return rc, nil
}

// ListDetails lists a broker's invoices with the supplier named on each
func (s *Service) ListDetails(ctx context.Context, brokerID string) ([]Summary, error) {
	list, err := s.repo.ListByBroker(ctx, brokerID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(list))
	for _, inv := range list {
		ids = append(ids, inv.ShipFrom)
	}
	suppliers, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(list))
	for i := range list {
		summary := SummaryOf(&list[i])
		if u := suppliers[list[i].ShipFrom]; u != nil {
			summary.Supplier = Party{Name: u.FirmName, Address: u.Address}
		}
		out = append(out, summary)
	}
	return out, nil
}

func (s *Service) checkOrder(ctx context.Context, brokerID, orderID string) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return apperrors.NotFound("Order not found")
	}
	if order.BrokerID != brokerID {
		return apperrors.Forbidden("Unauthorized to invoice this order")
	}
	return nil
}

func validate(req InvoiceRequest) error {
	for _, v := range []string{req.OrderID, req.BillFrom, req.ShipFrom, req.BillTo, req.ShipTo} {
		if strings.TrimSpace(v) == "" {
			return apperrors.Validation("Missing required fields")
		}
	}
	for _, item := range req.Items {
		if item.Quantity.IsNegative() || item.Price.IsNegative() {
			return apperrors.Validation("Item price and quantity cannot be negative")
		}
	}
	return nil
}

// build fills missing line and invoice totals from the items
func build(brokerID string, req InvoiceRequest, status Status) *Invoice {
	items := make([]Item, 0, len(req.Items))
	sum := decimal.Zero
	for _, item := range req.Items {
		if item.TotalAmount.IsZero() {
			item.TotalAmount = item.Price.Mul(item.Quantity)
		}
		item.TotalAmount = item.TotalAmount.Round(2)
		sum = sum.Add(item.TotalAmount)
		items = append(items, item)
	}

	total := req.TotalAmount
	if total.IsZero() {
		total = sum
	}
	final := req.FinalAmount
	if final.IsZero() {
		final = total.Add(req.TaxAmount).Add(req.ShippingCharges)
	}

	return &Invoice{
		OrderID:         req.OrderID,
		BrokerID:        brokerID,
		BillFrom:        strings.TrimSpace(req.BillFrom),
		ShipFrom:        strings.TrimSpace(req.ShipFrom),
		BillTo:          strings.TrimSpace(req.BillTo),
		ShipTo:          strings.TrimSpace(req.ShipTo),
		Items:           datatypes.JSONSlice[Item](items),
		TotalAmount:     total.Round(2),
		TaxAmount:       req.TaxAmount.Round(2),
		ShippingCharges: req.ShippingCharges.Round(2),
		FinalAmount:     final.Round(2),
		PONumber:        req.PONumber,
		Status:          status,
	}
}

func partyLines(u *users.User) string {
	if u.Address == "" {
		return u.FirmName
	}
	return u.FirmName + "\n" + u.Address
}
