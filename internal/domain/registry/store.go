package registry

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"timesheets/internal/platform/crypto"
	"timesheets/internal/platform/querier"
)

type Store struct {
	DB     querier.Querier
	Sealer *crypto.Sealer
}

// NewStore returns a registry store. Account numbers stored encrypted are
// opened with sealer; a nil or disabled sealer leaves them unreadable.
func NewStore(db querier.Querier, sealer *crypto.Sealer) *Store {
	return &Store{DB: db, Sealer: sealer}
}

const contractorColumns = `
    id, tenant_id, employee_code, name, email, join_date,
    COALESCE(designation, ''), COALESCE(department, ''),
    COALESCE(bank_name, ''), COALESCE(account_number, ''), account_number_enc, COALESCE(pan, ''),
    pay_type, daily_rate, monthly_rate, paid_leave_per_month, client_billing_rate`

func (s *Store) scanContractor(row pgx.Row) (Contractor, error) {
	var c Contractor
	var payType string
	var sealedAccount []byte
	err := row.Scan(&c.ID, &c.TenantID, &c.EmployeeCode, &c.Name, &c.Email, &c.JoinDate,
		&c.Designation, &c.Department, &c.BankName, &c.AccountNumber, &sealedAccount, &c.PAN,
		&payType, &c.PayProfile.DailyRate, &c.PayProfile.MonthlyRate, &c.PayProfile.PaidLeavePerMonth, &c.PayProfile.ClientBillingRate)
	if err != nil {
		return Contractor{}, err
	}
	c.PayProfile.PayType = PayType(payType)
	c.AccountNumber, err = openAccount(s.Sealer, c.AccountNumber, sealedAccount)
	return c, err
}

// openAccount prefers the encrypted column over the legacy plaintext one.
func openAccount(sealer *crypto.Sealer, plain string, sealed []byte) (string, error) {
	if len(sealed) == 0 {
		return plain, nil
	}
	if !sealer.Enabled() {
		return "", ErrAccountSealed
	}
	return sealer.OpenString(sealed)
}

// SealPlaintextAccounts encrypts every account number still stored in
// plaintext and returns how many rows were converted.
func (s *Store) SealPlaintextAccounts(ctx context.Context) (int, error) {
	if !s.Sealer.Enabled() {
		return 0, nil
	}
	rows, err := s.DB.Query(ctx, `
    SELECT id, account_number
    FROM contractors
    WHERE account_number IS NOT NULL AND account_number <> '' AND account_number_enc IS NULL
  `)
	if err != nil {
		return 0, err
	}
	type pending struct{ id, account string }
	var todo []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.account); err != nil {
			rows.Close()
			return 0, err
		}
		todo = append(todo, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for i, p := range todo {
		sealed, err := s.Sealer.SealString(p.account)
		if err != nil {
			return i, err
		}
		if _, err := s.DB.Exec(ctx, `
      UPDATE contractors
      SET account_number_enc = $2, account_number = NULL
      WHERE id = $1
    `, p.id, sealed); err != nil {
			return i, err
		}
	}
	return len(todo), nil
}

func (s *Store) GetContractor(ctx context.Context, tenantID, contractorID string) (Contractor, error) {
	c, err := s.scanContractor(s.DB.QueryRow(ctx, `
    SELECT`+contractorColumns+`
    FROM contractors
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, contractorID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Contractor{}, ErrContractorNotFound
	}
	return c, err
}

func (s *Store) ListContractors(ctx context.Context, tenantID string) ([]Contractor, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+contractorColumns+`
    FROM contractors
    WHERE tenant_id = $1
    ORDER BY employee_code
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Contractor
	for rows.Next() {
		c, err := s.scanContractor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetProject(ctx context.Context, tenantID, projectID string) (Project, error) {
	var p Project
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, client_id, active
    FROM projects
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, projectID).Scan(&p.ID, &p.Name, &p.ClientID, &p.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return Project{}, ErrProjectNotFound
	}
	return p, err
}

func (s *Store) GetClient(ctx context.Context, tenantID, clientID string) (Client, error) {
	var c Client
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, COALESCE(contact_name, ''), COALESCE(contact_email, ''), COALESCE(currency, 'INR')
    FROM clients
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, clientID).Scan(&c.ID, &c.Name, &c.ContactName, &c.ContactEmail, &c.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return Client{}, ErrClientNotFound
	}
	return c, err
}

func (s *Store) ListProjectsForContractor(ctx context.Context, tenantID, contractorID string) ([]Project, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT p.id, p.name, p.client_id, p.active
    FROM contractor_projects cp
    JOIN projects p ON p.id = cp.project_id
    WHERE p.tenant_id = $1 AND cp.contractor_id = $2
    ORDER BY p.name
  `, tenantID, contractorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.ClientID, &p.Active); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) IsAssigned(ctx context.Context, tenantID, contractorID, projectID string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM contractor_projects cp
    JOIN projects p ON p.id = cp.project_id
    WHERE p.tenant_id = $1 AND cp.contractor_id = $2 AND cp.project_id = $3
  `, tenantID, contractorID, projectID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
