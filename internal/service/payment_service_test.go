package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunecraft/tunecraft-api/internal/models"
	appErrors "github.com/tunecraft/tunecraft-api/pkg/errors"
	"github.com/tunecraft/tunecraft-api/pkg/export"
	"github.com/tunecraft/tunecraft-api/pkg/payment"
)

type mockPaymentRepo struct {
	payments map[string]models.Payment
}

func (m *mockPaymentRepo) Create(ctx context.Context, p *models.Payment) error {
	if m.payments == nil {
		m.payments = make(map[string]models.Payment)
	}
	if p.ID == "" {
		p.ID = "new-payment"
	}
	m.payments[p.ID] = *p
	return nil
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	if p, ok := m.payments[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPaymentRepo) ListByStudent(ctx context.Context, studentEmail string) ([]models.Payment, error) {
	var list []models.Payment
	for _, p := range m.payments {
		if p.StudentEmail == studentEmail {
			list = append(list, p)
		}
	}
	return list, nil
}

func (m *mockPaymentRepo) CountByInstructor(ctx context.Context, instructorEmail string) (int, error) {
	var total int
	for _, p := range m.payments {
		if p.InstructorEmail == instructorEmail {
			total++
		}
	}
	return total, nil
}

type mockGateway struct {
	intent *payment.Intent
	err    error
	calls  int
}

func (m *mockGateway) CreateIntent(ctx context.Context, amount int64, currency string) (*payment.Intent, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.intent, nil
}

type mockReceiptRenderer struct {
	rendered *export.Receipt
}

func (m *mockReceiptRenderer) Render(receipt export.Receipt) ([]byte, error) {
	m.rendered = &receipt
	return []byte("%PDF-1.4"), nil
}

func newPaymentService(repo *mockPaymentRepo, enrollments *mockReservationRepo, catalog *mockClassRepo, gateway *mockGateway, receipts *mockReceiptRenderer) *PaymentService {
	return NewPaymentService(repo, enrollments, catalog, gateway, receipts, nil, nil)
}

func TestCreateIntentDelegatesToGateway(t *testing.T) {
	gateway := &mockGateway{intent: &payment.Intent{ID: "pi_1", ClientSecret: "secret_1"}}
	svc := newPaymentService(&mockPaymentRepo{}, &mockReservationRepo{}, approvedCatalog(), gateway, &mockReceiptRenderer{})

	resp, err := svc.CreateIntent(context.Background(), CreateIntentRequest{Amount: 4900})
	require.NoError(t, err)
	assert.Equal(t, "secret_1", resp.ClientSecret)
	assert.Equal(t, 1, gateway.calls)
}

func TestCreateIntentSurfacesGatewayFailureUnretried(t *testing.T) {
	gateway := &mockGateway{err: appErrors.Clone(appErrors.ErrUpstream, "gateway down")}
	svc := newPaymentService(&mockPaymentRepo{}, &mockReservationRepo{}, approvedCatalog(), gateway, &mockReceiptRenderer{})

	_, err := svc.CreateIntent(context.Background(), CreateIntentRequest{Amount: 4900})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 1, gateway.calls)
}

func TestCreateIntentRejectsNonPositiveAmount(t *testing.T) {
	gateway := &mockGateway{}
	svc := newPaymentService(&mockPaymentRepo{}, &mockReservationRepo{}, approvedCatalog(), gateway, &mockReceiptRenderer{})

	_, err := svc.CreateIntent(context.Background(), CreateIntentRequest{Amount: 0})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, gateway.calls)
}

func TestRecordRequiresEnrollment(t *testing.T) {
	repo := &mockPaymentRepo{}
	svc := newPaymentService(repo, &mockReservationRepo{}, approvedCatalog(), &mockGateway{}, &mockReceiptRenderer{})

	_, err := svc.Record(context.Background(), "student@example.com", RecordPaymentRequest{
		ClassID: "c1", Amount: 4900, TransactionID: "txn_1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.payments)
}

func TestRecordDenormalizesClassFields(t *testing.T) {
	enrollments := &mockReservationRepo{enrollments: []models.Enrollment{
		{ID: "e1", ClassID: "c1", StudentEmail: "student@example.com"},
	}}
	catalog := approvedCatalog(models.Class{
		ID: "c1", Name: "Guitar 101", InstructorEmail: "teacher@example.com",
		Status: models.ClassStatusApproved,
	})
	repo := &mockPaymentRepo{}
	svc := newPaymentService(repo, enrollments, catalog, &mockGateway{}, &mockReceiptRenderer{})

	record, err := svc.Record(context.Background(), "student@example.com", RecordPaymentRequest{
		ClassID: "c1", Amount: 4900, TransactionID: "txn_1",
	})
	require.NoError(t, err)
	assert.Equal(t, "teacher@example.com", record.InstructorEmail)
	assert.Equal(t, "Guitar 101", record.ClassName)
	assert.Len(t, repo.payments, 1)
}

func TestReceiptRequiresOwnership(t *testing.T) {
	repo := &mockPaymentRepo{payments: map[string]models.Payment{
		"p1": {ID: "p1", StudentEmail: "owner@example.com"},
	}}
	svc := newPaymentService(repo, &mockReservationRepo{}, approvedCatalog(), &mockGateway{}, &mockReceiptRenderer{})

	_, err := svc.Receipt(context.Background(), "intruder@example.com", "p1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReceiptRendersOwnPayment(t *testing.T) {
	repo := &mockPaymentRepo{payments: map[string]models.Payment{
		"p1": {ID: "p1", StudentEmail: "owner@example.com", ClassName: "Guitar 101", Amount: 4900, Currency: "usd", TransactionID: "txn_1"},
	}}
	renderer := &mockReceiptRenderer{}
	svc := newPaymentService(repo, &mockReservationRepo{}, approvedCatalog(), &mockGateway{}, renderer)

	pdf, err := svc.Receipt(context.Background(), "owner@example.com", "p1")
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
	require.NotNil(t, renderer.rendered)
	assert.Equal(t, "Guitar 101", renderer.rendered.ClassName)
	assert.Equal(t, int64(4900), renderer.rendered.Amount)
}

func TestCountByInstructorSelfOrAdmin(t *testing.T) {
	repo := &mockPaymentRepo{payments: map[string]models.Payment{
		"p1": {ID: "p1", InstructorEmail: "teacher@example.com"},
		"p2": {ID: "p2", InstructorEmail: "teacher@example.com"},
	}}
	svc := newPaymentService(repo, &mockReservationRepo{}, approvedCatalog(), &mockGateway{}, &mockReceiptRenderer{})

	total, err := svc.CountByInstructor(context.Background(), "teacher@example.com", models.RoleInstructor, "teacher@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	total, err = svc.CountByInstructor(context.Background(), "admin@example.com", models.RoleAdmin, "teacher@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	_, err = svc.CountByInstructor(context.Background(), "other@example.com", models.RoleInstructor, "teacher@example.com")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestHistoryNeverNil(t *testing.T) {
	svc := newPaymentService(&mockPaymentRepo{}, &mockReservationRepo{}, approvedCatalog(), &mockGateway{}, &mockReceiptRenderer{})

	payments, err := svc.History(context.Background(), "student@example.com")
	require.NoError(t, err)
	assert.NotNil(t, payments)
}
