package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/ccparser/internal/domain/analysis"
	"github.com/FACorreiaa/ccparser/internal/domain/report"
	"github.com/FACorreiaa/ccparser/internal/domain/statement"
	"github.com/FACorreiaa/ccparser/internal/domain/transaction"
	"github.com/FACorreiaa/ccparser/internal/domain/user"
	"github.com/FACorreiaa/ccparser/pkg/apperr"
	"github.com/FACorreiaa/ccparser/pkg/db"
	"github.com/FACorreiaa/ccparser/pkg/money"
)

// env is what a command runs against.
type env struct {
	deps    *Dependencies
	stdout  io.Writer
	stderr  io.Writer
	noColor bool
}

type command struct {
	usage   string
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

// commands is filled in init; the handlers read their own usage from it.
var commands map[string]command

func init() {
	commands = map[string]command{
		"init-db": {
			usage:   "",
			summary: "Create or migrate the database and show table sizes",
			run:     runInitDB,
		},
		"create-user": {
			usage:   "<username> <email>",
			summary: "Register a user and seed the default category rules",
			run:     runCreateUser,
		},
		"list-users": {
			usage:   "",
			summary: "List registered users",
			run:     runListUsers,
		},
		"process": {
			usage:   "[-replace] [-top n] [-xlsx file] <statement> <username>",
			summary: "Parse, categorize and store a statement PDF or text file",
			run:     runProcess,
		},
		"statements": {
			usage:   "<username>",
			summary: "List a user's processed statements",
			run:     runStatements,
		},
		"delete-statement": {
			usage:   "<username> <statement-id>",
			summary: "Delete a statement with its transactions",
			run:     runDeleteStatement,
		},
		"transactions": {
			usage:   "[-from date] [-to date] [-category name] [-direction debit|credit] [-limit n] <username>",
			summary: "List stored transactions",
			run:     runTransactions,
		},
		"search": {
			usage:   "[-category name] [-limit n] <username> <query...>",
			summary: "Search transaction descriptions, tolerating typos",
			run:     runSearch,
		},
		"set-category": {
			usage:   "<username> <transaction-id> <category>",
			summary: "Correct the category of one transaction",
			run:     runSetCategory,
		},
		"recategorize": {
			usage:   "<username>",
			summary: "Re-apply the current rules to every uncorrected transaction",
			run:     runRecategorize,
		},
		"categories": {
			usage:   "<username>",
			summary: "List the categories available to a user",
			run:     runCategories,
		},
		"rules": {
			usage:   "list <username> | upsert [-priority n] <username> <pattern> <category> | delete <username> <pattern>",
			summary: "Manage category rules",
			run:     runRules,
		},
		"analyze": {
			usage:   "[-from date] [-to date] [-month1 YYYY-MM] [-month2 YYYY-MM] [-compare] [-top n] [-xlsx file] <username>",
			summary: "Spending analysis and month-over-month comparison",
			run:     runAnalyze,
		},
		"export": {
			usage:   "[-format csv|xlsx] [-out file] [-from date] [-to date] [-category name] <username>",
			summary: "Export categorized transactions",
			run:     runExport,
		},
	}
}

// parseArgs parses fs and checks the positional argument count. want < 0
// accepts at least -want arguments.
func parseArgs(fs *flag.FlagSet, e *env, usage string, args []string, want int) ([]string, error) {
	fs.SetOutput(e.stderr)
	fs.Usage = func() {
		fmt.Fprintf(e.stderr, "Usage: ccparser %s %s\n", fs.Name(), usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}

	n := fs.NArg()
	switch {
	case want >= 0 && n != want:
		fs.Usage()
		return nil, fmt.Errorf("%w: %s takes %d arguments, got %d", errUsage, fs.Name(), want, n)
	case want < 0 && n < -want:
		fs.Usage()
		return nil, fmt.Errorf("%w: %s takes at least %d arguments, got %d", errUsage, fs.Name(), -want, n)
	}
	return fs.Args(), nil
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

func (e *env) console() *report.Console {
	return report.NewConsole(e.stdout, e.deps.Config.Currency, e.noColor)
}

func (e *env) user(ctx context.Context, username string) (*user.User, error) {
	return e.deps.UserService.GetByUsername(ctx, username)
}

func (e *env) table() *tabwriter.Writer {
	return tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
}

// reportPath places relative report files under the configured report dir.
func (e *env) reportPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(e.deps.Config.Report.Dir, path)
}

func parseID(field, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, apperr.NewValidation(field, fmt.Sprintf("%q is not a valid id", s))
	}
	return id, nil
}

// filterFlags registers the shared transaction filter flags on fs.
type filterFlags struct {
	from, to, category, direction string
	limit                         int
}

func (f *filterFlags) register(fs *flag.FlagSet, withLimit bool) {
	fs.StringVar(&f.from, "from", "", "first day, YYYY-MM-DD")
	fs.StringVar(&f.to, "to", "", "last day, YYYY-MM-DD")
	fs.StringVar(&f.category, "category", "", "only this category")
	fs.StringVar(&f.direction, "direction", "", "debit or credit")
	if withLimit {
		fs.IntVar(&f.limit, "limit", 0, "maximum rows, 0 for all")
	}
}

func (f *filterFlags) filter() (transaction.Filter, error) {
	out := transaction.Filter{Category: f.category, Limit: f.limit}
	var err error
	if out.From, err = parseDay("from", f.from); err != nil {
		return out, err
	}
	if out.To, err = parseDay("to", f.to); err != nil {
		return out, err
	}
	if f.direction != "" {
		if out.Direction, err = transaction.ParseDirection(f.direction); err != nil {
			return out, apperr.NewValidation("direction", err.Error())
		}
	}
	return out, out.Validate()
}

func parseDay(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, apperr.NewValidation(field, fmt.Sprintf("%q is not a YYYY-MM-DD date", s))
	}
	return t, nil
}

func runInitDB(ctx context.Context, e *env, args []string) error {
	if _, err := parseArgs(newFlagSet("init-db"), e, commands["init-db"].usage, args, 0); err != nil {
		return err
	}

	counts, err := e.deps.DB.TableCounts(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "Database ready (%s)\n", e.deps.DB.Driver())
	tw := e.table()
	for _, table := range db.Tables {
		fmt.Fprintf(tw, "  %s\t%d\n", table, counts[table])
	}
	return tw.Flush()
}

func runCreateUser(ctx context.Context, e *env, args []string) error {
	pos, err := parseArgs(newFlagSet("create-user"), e, commands["create-user"].usage, args, 2)
	if err != nil {
		return err
	}

	u, err := e.deps.UserService.Create(ctx, user.CreateParams{Username: pos[0], Email: pos[1]})
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Created user %s <%s> (%s)\n", u.Username, u.Email, u.ID)
	return nil
}

func runListUsers(ctx context.Context, e *env, args []string) error {
	if _, err := parseArgs(newFlagSet("list-users"), e, commands["list-users"].usage, args, 0); err != nil {
		return err
	}

	users, err := e.deps.UserService.List(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Fprintln(e.stdout, "no users")
		return nil
	}

	tw := e.table()
	fmt.Fprintln(tw, "USERNAME\tEMAIL\tACTIVE\tCREATED\tID")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n", u.Username, u.Email, u.IsActive, u.CreatedAt.Format(time.DateOnly), u.ID)
	}
	return tw.Flush()
}

func runProcess(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("process")
	replace := fs.Bool("replace", false, "replace an already processed statement from the same file")
	top := fs.Int("top", 5, "largest debits to show")
	xlsx := fs.String("xlsx", "", "also write an Excel report of the statement")
	pos, err := parseArgs(fs, e, commands["process"].usage, args, 2)
	if err != nil {
		return err
	}

	u, err := e.user(ctx, pos[1])
	if err != nil {
		return err
	}

	res, err := e.deps.StatementService.ProcessStatement(ctx, u.ID, pos[0], statement.ProcessOptions{Replace: *replace})
	if err != nil {
		return err
	}

	s := res.Statement
	currency := e.deps.Config.Currency
	verb := "Processed"
	if res.Replaced {
		verb = "Reprocessed"
	}
	fmt.Fprintf(e.stdout, "%s %s: %d transactions, debits %s, credits %s\n",
		verb, s.FileName, s.TransactionCount, money.Format(s.TotalDebits, currency), money.Format(s.TotalCredits, currency))
	fmt.Fprintf(e.stdout, "Statement %s\n", s.ID)
	for _, up := range res.Unparsed {
		fmt.Fprintf(e.stderr, "warning: line %d not parsed (%s): %s\n", up.Line, up.Reason, up.Text)
	}
	fmt.Fprintln(e.stdout)

	r := analysis.NewReport(res.Transactions, *top)
	console := e.console()
	if err := console.Summary(r); err != nil {
		return err
	}
	fmt.Fprintln(e.stdout)
	if err := console.LargestDebits(r.LargestDebits); err != nil {
		return err
	}

	if *xlsx != "" {
		return e.saveWorkbook(*xlsx, r, nil)
	}
	return nil
}

func (e *env) saveWorkbook(path string, r *analysis.Report, cmp *analysis.Comparison) error {
	wb, err := report.NewWorkbook(e.deps.Config.Currency)
	if err != nil {
		return err
	}
	defer wb.Close()

	if err := wb.AddReport(r); err != nil {
		return err
	}
	if cmp != nil {
		if err := wb.AddComparison(cmp); err != nil {
			return fmt.Errorf("failed to write comparison sheet: %w", err)
		}
	}

	path = e.reportPath(path)
	if err := wb.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Excel report written to %s\n", path)
	return nil
}

func runStatements(ctx context.Context, e *env, args []string) error {
	pos, err := parseArgs(newFlagSet("statements"), e, commands["statements"].usage, args, 1)
	if err != nil {
		return err
	}
	u, err := e.user(ctx, pos[0])
	if err != nil {
		return err
	}

	stmts, err := e.deps.StatementService.List(ctx, u.ID)
	if err != nil {
		return err
	}
	if len(stmts) == 0 {
		fmt.Fprintln(e.stdout, "no statements")
		return nil
	}

	currency := e.deps.Config.Currency
	tw := e.table()
	fmt.Fprintln(tw, "FILE\tSTATUS\tTXNS\tDEBITS\tCREDITS\tPERIOD\tPROCESSED\tID")
	for _, s := range stmts {
		period := "-"
		if !s.PeriodStart.IsZero() {
			period = s.PeriodStart.Format(time.DateOnly) + ".." + s.PeriodEnd.Format(time.DateOnly)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			s.FileName, s.Status, s.TransactionCount,
			money.Format(s.TotalDebits, currency), money.Format(s.TotalCredits, currency),
			period, s.UpdatedAt.Format(time.DateTime), s.ID)
	}
	return tw.Flush()
}

func runDeleteStatement(ctx context.Context, e *env, args []string) error {
	pos, err := parseArgs(newFlagSet("delete-statement"), e, commands["delete-statement"].usage, args, 2)
	if err != nil {
		return err
	}
	u, err := e.user(ctx, pos[0])
	if err != nil {
		return err
	}
	id, err := parseID("statement", pos[1])
	if err != nil {
		return err
	}

	if err := e.deps.StatementService.Delete(ctx, u.ID, id); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Deleted statement %s\n", id)
	return nil
}

func runTransactions(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("transactions")
	var ff filterFlags
	ff.register(fs, true)
	pos, err := parseArgs(fs, e, commands["transactions"].usage, args, 1)
	if err != nil {
		return err
	}
	f, err := ff.filter()
	if err != nil {
		return err
	}
	u, err := e.user(ctx, pos[0])
	if err != nil {
		return err
	}

	txns, err := e.deps.TransactionService.List(ctx, u.ID, f)
	if err != nil {
		return err
	}
	return e.console().Transactions(txns)
}

func runSearch(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("search")
	category := fs.String("category", "", "only this category")
	limit := fs.Int("limit", 20, "maximum results")
	pos, err := parseArgs(fs, e, commands["search"].usage, args, -2)
	if err != nil {
		return err
	}
	u, err := e.user(ctx, pos[0])
	if err != nil {
		return err
	}

	hits, err := e.deps.TransactionService.Search(ctx, u.ID, strings.Join(pos[1:], " "), *category, *limit)
	if err != nil {
		return err
	}
	return e.console().SearchHits(hits)
}

func runSetCategory(ctx context.Context, e *env, args []string) error {
	pos, err := parseArgs(newFlagSet("set-category"), e, commands["set-category"].usage, args, 3)
	if err != nil {
		return err
	}
	u, err := e.user(ctx, pos[0])
	if err != nil {
		return err
	}
	id, err := parseID("transaction", pos[1])
	if err != nil {
		return err
	}

	t, err := e.deps.TransactionService.SetCategory(ctx, u.ID, id, pos[2])
	var nf *apperr.NotFoundError
	if errors.As(err, &nf) && nf.Entity == "category" {
		if suggestions, serr := e.deps.CategorizationService.SuggestCategories(ctx, u.ID, pos[2]); serr == nil && len(suggestions) > 0 {
			fmt.Fprintf(e.stderr, "did you mean: %s?\n", strings.Join(suggestions, ", "))
		}
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "%s %q: %s -> %s\n", t.Date.Format(time.DateOnly), t.Description, t.OriginalCategory, t.Category)
	return nil
}

func runRecategorize(ctx context.Context, e *env, args []string) error {
	pos, err := parseArgs(newFlagSet("recategorize"), e, commands["recategorize"].usage, args, 1)
	if err != nil {
		return err
	}
	u, err := e.user(ctx, pos[0])
	if err != nil {
		return err
	}

	n, err := e.deps.TransactionService.Recategorize(ctx, u.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Recategorized %d transactions\n", n)
	return nil
}

func runCategories(ctx context.Context, e *env, args []string) error {
	pos, err := parseArgs(newFlagSet("categories"), e, commands["categories"].usage, args, 1)
	if err != nil {
		return err
	}
	u, err := e.user(ctx, pos[0])
	if err != nil {
		return err
	}

	categories, err := e.deps.CategorizationService.ListCategories(ctx, u.ID)
	if err != nil {
		return err
	}
	for _, c := range categories {
		fmt.Fprintln(e.stdout, c)
	}
	return nil
}

func runRules(ctx context.Context, e *env, args []string) error {
	usage := commands["rules"].usage
	if len(args) == 0 {
		return fmt.Errorf("%w: rules needs a subcommand (list, upsert, delete)", errUsage)
	}

	switch sub, rest := args[0], args[1:]; sub {
	case "list":
		pos, err := parseArgs(newFlagSet("rules list"), e, usage, rest, 1)
		if err != nil {
			return err
		}
		u, err := e.user(ctx, pos[0])
		if err != nil {
			return err
		}
		rules, err := e.deps.CategorizationService.Rules(ctx, u.ID)
		if err != nil {
			return err
		}
		tw := e.table()
		fmt.Fprintln(tw, "PRIORITY\tPATTERN\tCATEGORY")
		for _, r := range rules {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", r.Priority, r.Pattern, r.Category)
		}
		return tw.Flush()

	case "upsert":
		fs := newFlagSet("rules upsert")
		priority := fs.Int("priority", 50, "lower values are tried first")
		pos, err := parseArgs(fs, e, usage, rest, 3)
		if err != nil {
			return err
		}
		u, err := e.user(ctx, pos[0])
		if err != nil {
			return err
		}
		r, err := e.deps.CategorizationService.UpsertRule(ctx, u.ID, pos[1], pos[2], *priority)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "Rule %q -> %s (priority %d). Run recategorize to apply it to stored transactions.\n", r.Pattern, r.Category, r.Priority)
		return nil

	case "delete":
		pos, err := parseArgs(newFlagSet("rules delete"), e, usage, rest, 2)
		if err != nil {
			return err
		}
		u, err := e.user(ctx, pos[0])
		if err != nil {
			return err
		}
		if err := e.deps.CategorizationService.DeleteRule(ctx, u.ID, pos[1]); err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "Deleted rule %q\n", pos[1])
		return nil

	default:
		return fmt.Errorf("%w: unknown rules subcommand %q", errUsage, sub)
	}
}

func runAnalyze(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("analyze")
	var ff filterFlags
	ff.register(fs, false)
	month1 := fs.String("month1", "", "first month to compare, YYYY-MM")
	month2 := fs.String("month2", "", "second month to compare, YYYY-MM")
	compare := fs.Bool("compare", false, "compare the two latest months with data")
	top := fs.Int("top", 5, "largest debits to show")
	xlsx := fs.String("xlsx", "", "also write an Excel report")
	pos, err := parseArgs(fs, e, commands["analyze"].usage, args, 1)
	if err != nil {
		return err
	}

	f, err := ff.filter()
	if err != nil {
		return err
	}
	var m1, m2 analysis.Month
	for _, m := range []struct {
		flag string
		dst  *analysis.Month
	}{{*month1, &m1}, {*month2, &m2}} {
		if m.flag == "" {
			continue
		}
		if *m.dst, err = analysis.ParseMonth(m.flag); err != nil {
			return apperr.NewValidation("month", err.Error())
		}
	}

	u, err := e.user(ctx, pos[0])
	if err != nil {
		return err
	}

	r, err := e.deps.AnalysisService.Analyze(ctx, u.ID, f, *top)
	if err != nil {
		return err
	}
	console := e.console()
	if err := console.Summary(r); err != nil {
		return err
	}
	fmt.Fprintln(e.stdout)
	if err := console.Trend(r.Trend); err != nil {
		return err
	}
	fmt.Fprintln(e.stdout)
	if err := console.LargestDebits(r.LargestDebits); err != nil {
		return err
	}

	var cmp *analysis.Comparison
	if *compare || !m1.IsZero() || !m2.IsZero() {
		if cmp, err = e.deps.AnalysisService.CompareMonths(ctx, u.ID, m1, m2); err != nil {
			return err
		}
		fmt.Fprintln(e.stdout)
		if err := console.Comparison(cmp); err != nil {
			return err
		}
	}

	if *xlsx != "" {
		return e.saveWorkbook(*xlsx, r, cmp)
	}
	return nil
}

func runExport(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("export")
	var ff filterFlags
	ff.register(fs, false)
	format := fs.String("format", "csv", "csv or xlsx")
	out := fs.String("out", "", "output file; csv defaults to stdout")
	pos, err := parseArgs(fs, e, commands["export"].usage, args, 1)
	if err != nil {
		return err
	}
	f, err := ff.filter()
	if err != nil {
		return err
	}

	u, err := e.user(ctx, pos[0])
	if err != nil {
		return err
	}

	switch *format {
	case "csv":
		txns, err := e.deps.TransactionService.List(ctx, u.ID, f)
		if err != nil {
			return err
		}
		if *out == "" {
			return report.WriteCSV(e.stdout, txns)
		}
		path := e.reportPath(*out)
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		if err := report.WriteCSV(file, txns); err != nil {
			file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "%d transactions written to %s\n", len(txns), path)
		return nil

	case "xlsx":
		if *out == "" {
			return apperr.NewValidation("out", "required for xlsx")
		}
		r, err := e.deps.AnalysisService.Analyze(ctx, u.ID, f, 10)
		if err != nil {
			return err
		}
		return e.saveWorkbook(*out, r, nil)

	default:
		return apperr.NewValidation("format", fmt.Sprintf("unknown format %q", *format))
	}
}
