package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/rl1809/library-ledger/internal/core/domain"
	"github.com/rl1809/library-ledger/internal/port"
)

// DefaultEmailDomain is the institutional suffix required on every user
// email unless the service is configured with a different one.
const DefaultEmailDomain = "@studenti.unisa.it"

// UserService handles member registration and edits. Like the book service
// it defers to the loan service before anything destructive: a user with
// open loans can neither be deleted nor change matricola.
type UserService struct {
	users       port.UserRepository
	loans       *LoanService
	audit       port.AuditLogger
	emailDomain string
}

func NewUserService(users port.UserRepository, loans *LoanService, audit port.AuditLogger, emailDomain string) *UserService {
	if emailDomain == "" {
		emailDomain = DefaultEmailDomain
	}
	return &UserService{
		users:       users,
		loans:       loans,
		audit:       audit,
		emailDomain: emailDomain,
	}
}

// AddUser registers a member. The matricola must be unused and the email
// must be institutional and not already held by another member.
func (s *UserService) AddUser(ctx context.Context, matricola, firstName, lastName, email string) (domain.User, error) {
	if err := domain.ValidateMatricola(matricola); err != nil {
		return domain.User{}, err
	}
	if err := s.validateEmail(email); err != nil {
		return domain.User{}, err
	}

	exists, err := s.users.ExistsByID(ctx, matricola)
	if err != nil {
		return domain.User{}, err
	}
	if exists {
		return domain.User{}, domain.Validationf("a user with matricola %s already exists", matricola)
	}

	inUse, err := s.emailInUse(ctx, email, "")
	if err != nil {
		return domain.User{}, err
	}
	if inUse {
		return domain.User{}, domain.Validationf("email %s is already in use", email)
	}

	user := domain.User{
		Matricola: matricola,
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Email:     strings.TrimSpace(email),
	}
	saved, err := s.users.Save(ctx, user)
	if err != nil {
		return domain.User{}, err
	}
	s.logAudit(ctx, "added", saved)
	return saved, nil
}

// UpdateUser edits a member. Changing the matricola is a delete-plus-insert
// and is blocked while the user holds any active loan; closed loans keep
// referencing the old matricola.
func (s *UserService) UpdateUser(ctx context.Context, oldMatricola, newMatricola, firstName, lastName, email string) (domain.User, error) {
	if err := domain.ValidateMatricola(newMatricola); err != nil {
		return domain.User{}, err
	}
	if strings.TrimSpace(firstName) == "" {
		return domain.User{}, domain.Validationf("first name must not be blank")
	}
	if strings.TrimSpace(lastName) == "" {
		return domain.User{}, domain.Validationf("last name must not be blank")
	}
	if err := s.validateEmail(email); err != nil {
		return domain.User{}, err
	}

	existing, err := s.users.FindByID(ctx, oldMatricola)
	if err != nil {
		return domain.User{}, err
	}
	if existing == nil {
		return domain.User{}, fmt.Errorf("user with matricola %s: %w", oldMatricola, domain.ErrNotFound)
	}

	inUse, err := s.emailInUse(ctx, email, oldMatricola)
	if err != nil {
		return domain.User{}, err
	}
	if inUse {
		return domain.User{}, domain.Validationf("email %s is already in use by another user", email)
	}

	if oldMatricola != newMatricola {
		taken, err := s.users.ExistsByID(ctx, newMatricola)
		if err != nil {
			return domain.User{}, err
		}
		if taken {
			return domain.User{}, domain.Validationf("a user with matricola %s already exists", newMatricola)
		}
		active, err := s.loans.CountActiveLoansByUser(ctx, oldMatricola)
		if err != nil {
			return domain.User{}, err
		}
		if active > 0 {
			return domain.User{}, domain.Validationf("cannot change matricola: user %s has %d active loans", oldMatricola, active)
		}
		if err := s.users.DeleteByID(ctx, oldMatricola); err != nil {
			return domain.User{}, err
		}
		replacement := domain.User{
			Matricola: newMatricola,
			FirstName: strings.TrimSpace(firstName),
			LastName:  strings.TrimSpace(lastName),
			Email:     strings.TrimSpace(email),
		}
		saved, err := s.users.Save(ctx, replacement)
		if err != nil {
			return domain.User{}, err
		}
		s.logAudit(ctx, "updated", saved)
		return saved, nil
	}

	existing.FirstName = strings.TrimSpace(firstName)
	existing.LastName = strings.TrimSpace(lastName)
	existing.Email = strings.TrimSpace(email)
	saved, err := s.users.Save(ctx, *existing)
	if err != nil {
		return domain.User{}, err
	}
	s.logAudit(ctx, "updated", saved)
	return saved, nil
}

// DeleteUser removes a member; blocked while the user holds active loans.
func (s *UserService) DeleteUser(ctx context.Context, matricola string) error {
	if err := domain.ValidateMatricola(matricola); err != nil {
		return err
	}
	exists, err := s.users.ExistsByID(ctx, matricola)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("user with matricola %s: %w", matricola, domain.ErrNotFound)
	}

	active, err := s.loans.CountActiveLoansByUser(ctx, matricola)
	if err != nil {
		return err
	}
	if active > 0 {
		return domain.Validationf("cannot delete user %s: %d loans are still active", matricola, active)
	}

	if err := s.users.DeleteByID(ctx, matricola); err != nil {
		return err
	}
	s.logAudit(ctx, "deleted", matricola)
	return nil
}

// UserByMatricola returns the user, or nil for a blank or unknown matricola.
func (s *UserService) UserByMatricola(ctx context.Context, matricola string) (*domain.User, error) {
	if strings.TrimSpace(matricola) == "" {
		return nil, nil
	}
	return s.users.FindByID(ctx, matricola)
}

func (s *UserService) SearchByLastName(ctx context.Context, keyword string) ([]domain.User, error) {
	return s.users.FindByLastNameContaining(ctx, keyword)
}

func (s *UserService) AllUsersOrderedByName(ctx context.Context) ([]domain.User, error) {
	return s.users.FindAllOrderByName(ctx)
}

func (s *UserService) validateEmail(email string) error {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return domain.Validationf("email must not be blank")
	}
	if !strings.Contains(trimmed, "@") {
		return domain.Validationf("email format is not valid")
	}
	if !strings.HasSuffix(trimmed, s.emailDomain) {
		return domain.Validationf("email must be institutional (%s)", s.emailDomain)
	}
	return nil
}

// emailInUse reports whether another user already holds the email;
// excludeMatricola skips the user being edited.
func (s *UserService) emailInUse(ctx context.Context, email, excludeMatricola string) (bool, error) {
	holder, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if holder == nil {
		return false, nil
	}
	return holder.Matricola != excludeMatricola, nil
}

func (s *UserService) logAudit(ctx context.Context, action string, data any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, "user", action, data); err != nil {
		log.Printf("audit user %s: %v", action, err)
	}
}
