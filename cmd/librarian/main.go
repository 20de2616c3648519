package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rl1809/library-ledger/configs"
	"github.com/rl1809/library-ledger/internal/adapter/audit"
	"github.com/rl1809/library-ledger/internal/adapter/storage"
	"github.com/rl1809/library-ledger/internal/core/domain"
	"github.com/rl1809/library-ledger/internal/core/service"
	"github.com/rl1809/library-ledger/internal/port"
)

// app wires config -> file-backed stores -> services once per invocation.
type app struct {
	cfg   configs.Config
	loans *service.LoanService
	books *service.BookService
	users *service.UserService
}

func newApp() (*app, error) {
	cfg := configs.Load()

	bookStore, err := storage.NewFileBookStore(cfg.BooksFile, storage.NewMemoryBookStore())
	if err != nil {
		return nil, err
	}
	userStore, err := storage.NewFileUserStore(cfg.UsersFile, storage.NewMemoryUserStore())
	if err != nil {
		return nil, err
	}
	loanStore, err := storage.NewFileLoanStore(cfg.LoansFile, storage.NewMemoryLoanStore())
	if err != nil {
		return nil, err
	}

	var auditLogger port.AuditLogger = audit.Discard{}
	if cfg.AuditEnabled {
		auditLogger = audit.NewFileLogger(cfg.AuditFile)
	}

	loanService := service.NewLoanService(loanStore, bookStore, userStore, auditLogger)
	return &app{
		cfg:   cfg,
		loans: loanService,
		books: service.NewBookService(bookStore, loanService, auditLogger),
		users: service.NewUserService(userStore, loanService, auditLogger, cfg.EmailDomain),
	}, nil
}

func main() {
	root := &cobra.Command{
		Use:           "librarian",
		Short:         "Manage the library catalog, members and loan ledger",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	var a *app
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		a, err = newApp()
		return err
	}

	root.AddCommand(
		addBookCmd(&a), updateBookCmd(&a), deleteBookCmd(&a), listBooksCmd(&a), searchBooksCmd(&a),
		addUserCmd(&a), updateUserCmd(&a), deleteUserCmd(&a), listUsersCmd(&a), searchUsersCmd(&a),
		lendCmd(&a), returnCmd(&a), listLoansCmd(&a),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addBookCmd(a **app) *cobra.Command {
	var (
		title   string
		authors []string
		year    int
		copies  int
	)
	cmd := &cobra.Command{
		Use:   "add-book ISBN",
		Short: "Add a book to the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := (*a).books.AddBook(cmd.Context(), args[0], title, authors, year, copies)
			if err != nil {
				return err
			}
			fmt.Printf("added %s %q (%s, %d), %d copies\n", book.ISBN, book.Title, book.AuthorsLabel(), book.Year, book.TotalCopies)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "book title")
	cmd.Flags().StringArrayVar(&authors, "author", nil, "author name (repeatable)")
	cmd.Flags().IntVar(&year, "year", 0, "publication year")
	cmd.Flags().IntVar(&copies, "copies", 1, "total copies")
	return cmd
}

func updateBookCmd(a **app) *cobra.Command {
	var (
		newIsbn string
		title   string
		authors []string
		year    int
		copies  int
	)
	cmd := &cobra.Command{
		Use:   "update-book ISBN",
		Short: "Edit a catalog entry; --isbn changes the identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := newIsbn
			if target == "" {
				target = args[0]
			}
			book, err := (*a).books.UpdateBook(cmd.Context(), args[0], target, title, authors, year, copies)
			if err != nil {
				return err
			}
			fmt.Printf("updated %s %q, %d/%d copies available\n", book.ISBN, book.Title, book.AvailableCopies, book.TotalCopies)
			return nil
		},
	}
	cmd.Flags().StringVar(&newIsbn, "isbn", "", "new ISBN (omit to keep)")
	cmd.Flags().StringVar(&title, "title", "", "book title")
	cmd.Flags().StringArrayVar(&authors, "author", nil, "author name (repeatable)")
	cmd.Flags().IntVar(&year, "year", 0, "publication year")
	cmd.Flags().IntVar(&copies, "copies", 1, "total copies")
	return cmd
}

func deleteBookCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-book ISBN",
		Short: "Remove a book with no copies on loan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := (*a).books.DeleteBook(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		},
	}
}

func listBooksCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "list-books",
		Short: "List the catalog ordered by title",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			books, err := (*a).books.AllBooksOrderedByTitle(cmd.Context())
			if err != nil {
				return err
			}
			for _, b := range books {
				fmt.Printf("%s  %-40q %s (%d)  %d/%d available\n", b.ISBN, b.Title, b.AuthorsLabel(), b.Year, b.AvailableCopies, b.TotalCopies)
			}
			return nil
		},
	}
}

func searchBooksCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "search-books KEYWORD",
		Short: "Search ISBN, titles and authors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			books, err := (*a).loans.SearchBooks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, b := range books {
				fmt.Printf("%s  %q %s (%d)  %d/%d available\n", b.ISBN, b.Title, b.AuthorsLabel(), b.Year, b.AvailableCopies, b.TotalCopies)
			}
			return nil
		},
	}
}

func addUserCmd(a **app) *cobra.Command {
	var first, last, email string
	cmd := &cobra.Command{
		Use:   "add-user MATRICOLA",
		Short: "Register a library member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := (*a).users.AddUser(cmd.Context(), args[0], first, last, email)
			if err != nil {
				return err
			}
			fmt.Printf("added %s %s <%s>\n", user.Matricola, user.DisplayName(), user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&first, "first", "", "first name")
	cmd.Flags().StringVar(&last, "last", "", "last name")
	cmd.Flags().StringVar(&email, "email", "", "institutional email")
	return cmd
}

func updateUserCmd(a **app) *cobra.Command {
	var newMatricola, first, last, email string
	cmd := &cobra.Command{
		Use:   "update-user MATRICOLA",
		Short: "Edit a member; --matricola changes the identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := newMatricola
			if target == "" {
				target = args[0]
			}
			user, err := (*a).users.UpdateUser(cmd.Context(), args[0], target, first, last, email)
			if err != nil {
				return err
			}
			fmt.Printf("updated %s %s <%s>\n", user.Matricola, user.DisplayName(), user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&newMatricola, "matricola", "", "new matricola (omit to keep)")
	cmd.Flags().StringVar(&first, "first", "", "first name")
	cmd.Flags().StringVar(&last, "last", "", "last name")
	cmd.Flags().StringVar(&email, "email", "", "institutional email")
	return cmd
}

func deleteUserCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-user MATRICOLA",
		Short: "Remove a member with no active loans",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := (*a).users.DeleteUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		},
	}
}

func listUsersCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "list-users",
		Short: "List members ordered by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := (*a).users.AllUsersOrderedByName(cmd.Context())
			if err != nil {
				return err
			}
			for _, u := range users {
				fmt.Printf("%s  %-30s <%s>\n", u.Matricola, u.DisplayName(), u.Email)
			}
			return nil
		},
	}
}

func searchUsersCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "search-users KEYWORD",
		Short: "Search by matricola (10 digits) or last name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := (*a).loans.SearchUsers(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, u := range users {
				fmt.Printf("%s  %-30s <%s>\n", u.Matricola, u.DisplayName(), u.Email)
			}
			return nil
		},
	}
}

func lendCmd(a **app) *cobra.Command {
	var matricola, date, due string
	cmd := &cobra.Command{
		Use:   "lend ISBN",
		Short: "Register a loan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loanDate, err := parseDateFlag(date, time.Now())
			if err != nil {
				return err
			}
			dueDate, err := parseDateFlag(due, loanDate.AddDate(0, 0, (*a).cfg.LoanPeriodDays))
			if err != nil {
				return err
			}
			loan, err := (*a).loans.RegisterLoan(cmd.Context(), matricola, args[0], loanDate, dueDate)
			if err != nil {
				return err
			}
			fmt.Printf("loan registered: %s, due %s\n", loan.ID(), loan.DueDate.Format(time.DateOnly))
			return nil
		},
	}
	cmd.Flags().StringVar(&matricola, "matricola", "", "borrower matricola")
	cmd.Flags().StringVar(&date, "date", "", "loan date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD, default loan date + loan period)")
	return cmd
}

func returnCmd(a **app) *cobra.Command {
	var matricola, loanDate, date string
	cmd := &cobra.Command{
		Use:   "return ISBN",
		Short: "Register a return",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			loan, err := findOpenLoan(ctx, (*a).loans, matricola, args[0], loanDate)
			if err != nil {
				return err
			}
			returnDate, err := parseDateFlag(date, time.Now())
			if err != nil {
				return err
			}
			closed, err := (*a).loans.RegisterReturn(ctx, loan, returnDate)
			if err != nil {
				return err
			}
			fmt.Printf("returned: %s on %s\n", closed.ID(), closed.ReturnDate.Format(time.DateOnly))
			return nil
		},
	}
	cmd.Flags().StringVar(&matricola, "matricola", "", "borrower matricola")
	cmd.Flags().StringVar(&loanDate, "loan-date", "", "loan date of the loan to close (default: the borrower's open loan of this book)")
	cmd.Flags().StringVar(&date, "date", "", "return date (YYYY-MM-DD, default today)")
	return cmd
}

func listLoansCmd(a **app) *cobra.Command {
	var matricola string
	cmd := &cobra.Command{
		Use:   "list-loans",
		Short: "List active loans ordered by due date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				loans []domain.Loan
				err   error
			)
			if matricola != "" {
				loans, err = (*a).loans.ActiveLoansByUser(ctx, matricola)
			} else {
				loans, err = (*a).loans.ActiveLoansOrderedByDueDate(ctx)
			}
			if err != nil {
				return err
			}
			now := time.Now()
			for _, l := range loans {
				flag := ""
				if l.IsOverdue(now) {
					flag = "  OVERDUE"
				}
				fmt.Printf("%s  %s  lent %s  due %s%s\n", l.Matricola, l.ISBN, l.LoanDate.Format(time.DateOnly), l.DueDate.Format(time.DateOnly), flag)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&matricola, "user", "", "only this member's loans")
	return cmd
}

func parseDateFlag(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", value)
	}
	return t, nil
}

// findOpenLoan resolves the loan to close: the exact (matricola, isbn,
// loan date) record when --loan-date is given, otherwise the borrower's
// single open loan of the book.
func findOpenLoan(ctx context.Context, loans *service.LoanService, matricola, isbn, loanDate string) (domain.Loan, error) {
	active, err := loans.ActiveLoansByUser(ctx, matricola)
	if err != nil {
		return domain.Loan{}, err
	}
	for _, l := range active {
		if l.ISBN != isbn {
			continue
		}
		if loanDate == "" || l.LoanDate.Format(time.DateOnly) == loanDate {
			return l, nil
		}
	}
	return domain.Loan{}, fmt.Errorf("no open loan of %s found for %s", isbn, matricola)
}
