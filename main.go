package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/tvmsuite/console/apiclient"
	"github.com/tvmsuite/console/audit"
	"github.com/tvmsuite/console/config"
	"github.com/tvmsuite/console/console"
	"github.com/tvmsuite/console/httpclient"
	logger "github.com/tvmsuite/console/logging"
	"github.com/tvmsuite/console/model"
	"github.com/tvmsuite/console/query"
	"github.com/tvmsuite/console/report"
	"github.com/tvmsuite/console/session"
	"github.com/tvmsuite/console/util"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	// Initialize logger
	logger.InitLogger(config.GetString("log.dir"))
	defer logger.Sync()

	app, err := buildApp(os.Stdout)
	if err != nil {
		logger.Fatal("Failed to initialize console", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, app, os.Args[1:]); err != nil {
		logger.Error("Command failed", zap.Error(err))
		os.Exit(1)
	}
}

// buildApp wires the session store, the HTTP client, the facades, the
// cache and the side-effect services together. The store implements
// the client's token source, and the client's unauthorized hook tears
// the session down, so the two attach to each other after
// construction.
func buildApp(out *os.File) (*console.App, error) {
	tokens := session.NewTokenStore(config.GetString("session.tokenFile"))
	store := session.NewStore(tokens)

	client := httpclient.New(
		config.GetString("api.baseURL"),
		config.GetDuration("api.timeout"),
		store,
		func() {
			store.Invalidate()
			fmt.Fprintln(out, "Session expired. Sign in again.")
		},
	)

	authClient := apiclient.NewAuthClient(client)
	store.AttachAPI(authClient)

	bus := util.NewEventBus()
	console.WireSessionEvents(store, bus, client)

	smsClient := apiclient.NewSMSClient(client)
	notifier := util.NewNotificationService(smsClient, config.GetBool("sms.enabled"))

	auditRepository, err := audit.NewFileRepository(config.GetString("audit.file"))
	if err != nil {
		return nil, err
	}

	return console.NewApp(
		out,
		console.Options{
			RefreshInterval: config.GetDuration("console.refreshInterval"),
			SearchDebounce:  config.GetDuration("console.searchDebounce"),
			PageLimit:       config.GetInt("console.pageLimit"),
		},
		store,
		query.NewCache(),
		bus,
		notifier,
		authClient,
		apiclient.NewAdminClient(client),
		apiclient.NewViolationsClient(client),
		apiclient.NewReportsClient(client),
		report.NewGenerator(config.GetString("console.exportDir")),
		audit.NewService(auditRepository),
	), nil
}

func run(ctx context.Context, app *console.App, args []string) error {
	if len(args) == 0 {
		usage()
		return nil
	}
	command, args := args[0], args[1:]

	switch command {
	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "account password")
		fs.Parse(args)
		if result := app.Login(ctx, *email, *password); !result.OK {
			return fmt.Errorf("login failed: %s", result.Message)
		}
		return nil

	case "logout":
		app.Logout(ctx)
		return nil

	case "passwd":
		fs := flag.NewFlagSet("passwd", flag.ExitOnError)
		current := fs.String("current", "", "current password")
		next := fs.String("new", "", "new password")
		fs.Parse(args)
		if !app.RequireAuth(ctx) {
			return nil
		}
		if result := app.ChangePassword(ctx, *current, *next); !result.OK {
			return fmt.Errorf("password change failed: %s", result.Message)
		}
		return nil

	case "dashboard":
		if !app.RequireAuth(ctx) {
			return nil
		}
		return app.ShowDashboard(ctx)

	case "watch":
		if !app.RequireAuth(ctx) {
			return nil
		}
		app.WatchDashboard(ctx)
		return nil

	case "violations":
		return runViolations(ctx, app, args)

	case "violation":
		return runViolation(ctx, app, args)

	case "enforcers":
		return runEnforcers(ctx, app, args)

	case "reports":
		return runReports(ctx, app, args)

	case "offenders":
		fs := flag.NewFlagSet("offenders", flag.ExitOnError)
		min := fs.Int("min", 0, "minimum violation count")
		limit := fs.Int("limit", 0, "maximum rows")
		watch := fs.Bool("watch", false, "keep the analytics refreshed")
		fs.Parse(args)
		if !app.RequireAuth(ctx) {
			return nil
		}
		if *watch {
			app.WatchRepeatOffenders(ctx, *min, *limit)
			return nil
		}
		return app.ListRepeatOffenders(ctx, *min, *limit)

	case "settings":
		return runSettings(ctx, app, args)

	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func runViolations(ctx context.Context, app *console.App, args []string) error {
	fs := flag.NewFlagSet("violations", flag.ExitOnError)
	filter := violationFilterFlags(fs)
	export := fs.Bool("export", false, "download the filtered set as a file")
	watch := fs.Bool("watch", false, "keep the list refreshed")
	fs.Parse(args)
	if !app.RequireAuth(ctx) {
		return nil
	}
	if *export {
		return app.ExportViolations(ctx, *filter)
	}
	if *watch {
		app.WatchViolations(ctx, *filter)
		return nil
	}
	return app.ListViolations(ctx, *filter)
}

func runViolation(ctx context.Context, app *console.App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: violation <get|update|delete|sms> <id> [flags]")
	}
	action, args := args[0], args[1:]
	if len(args) == 0 {
		return fmt.Errorf("violation %s: missing id", action)
	}
	id, args := args[0], args[1:]

	if !app.RequireAuth(ctx) {
		return nil
	}

	switch action {
	case "get":
		return app.ShowViolation(ctx, id)
	case "update":
		fs := flag.NewFlagSet("violation update", flag.ExitOnError)
		status := fs.String("status", "", "new status")
		fine := fs.Float64("fine", 0, "fine amount")
		notes := fs.String("notes", "", "notes")
		fs.Parse(args)
		input := model.ViolationInput{Status: *status, FineAmount: *fine, Notes: *notes}
		if result := app.UpdateViolation(ctx, id, input); result.Err != nil {
			return result.Err
		}
		return nil
	case "delete":
		if result := app.DeleteViolation(ctx, id); result.Err != nil {
			return result.Err
		}
		return nil
	case "sms":
		return app.SendViolationSMS(ctx, id)
	default:
		return fmt.Errorf("unknown violation action %q", action)
	}
}

func runEnforcers(ctx context.Context, app *console.App, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}
	action, args := args[0], args[1:]

	if !app.RequireAuth(ctx) {
		return nil
	}

	switch action {
	case "list":
		return app.ListEnforcers(ctx)
	case "create":
		fs := flag.NewFlagSet("enforcers create", flag.ExitOnError)
		input := enforcerInputFlags(fs)
		password := fs.String("password", "", "initial password")
		fs.Parse(args)
		input.Password = *password
		if result := app.CreateEnforcer(ctx, *input); result.Err != nil {
			return result.Err
		}
		return nil
	case "update":
		if len(args) == 0 {
			return fmt.Errorf("enforcers update: missing id")
		}
		id, rest := args[0], args[1:]
		fs := flag.NewFlagSet("enforcers update", flag.ExitOnError)
		input := enforcerInputFlags(fs)
		fs.Parse(rest)
		if result := app.UpdateEnforcer(ctx, id, *input); result.Err != nil {
			return result.Err
		}
		return nil
	case "activate", "deactivate":
		if len(args) == 0 {
			return fmt.Errorf("enforcers %s: missing id", action)
		}
		if result := app.ToggleEnforcer(ctx, args[0], action == "activate"); result.Err != nil {
			return result.Err
		}
		return nil
	case "delete":
		if len(args) == 0 {
			return fmt.Errorf("enforcers delete: missing id")
		}
		if result := app.DeleteEnforcer(ctx, args[0]); result.Err != nil {
			return result.Err
		}
		return nil
	default:
		return fmt.Errorf("unknown enforcers action %q", action)
	}
}

func runReports(ctx context.Context, app *console.App, args []string) error {
	fs := flag.NewFlagSet("reports", flag.ExitOnError)
	reportType := fs.String("type", model.ReportViolations, "violations|enforcers|daily-summary|monthly")
	from := fs.String("from", "", "period start (YYYY-MM-DD)")
	to := fs.String("to", "", "period end (YYYY-MM-DD)")
	date := fs.String("date", "", "day for the daily summary (YYYY-MM-DD)")
	month := fs.Int("month", 0, "month for the monthly report")
	year := fs.Int("year", 0, "year for the monthly report")
	format := fs.String("export", "", "also export as json|csv|pdf")
	fs.Parse(args)

	if !app.RequireAuth(ctx) {
		return nil
	}

	params := console.ReportParams{
		Type:     *reportType,
		DateFrom: *from,
		DateTo:   *to,
		Date:     *date,
		Month:    *month,
		Year:     *year,
	}
	if err := app.RunReport(ctx, params); err != nil {
		return err
	}
	if *format != "" {
		return app.ExportReport(*format)
	}
	return nil
}

func runSettings(ctx context.Context, app *console.App, args []string) error {
	if len(args) == 0 {
		args = []string{"show"}
	}
	action, args := args[0], args[1:]

	if !app.RequireAuth(ctx) {
		return nil
	}

	switch action {
	case "show":
		return app.ShowSettings(ctx)
	case "set":
		fs := flag.NewFlagSet("settings set", flag.ExitOnError)
		name := fs.String("name", "", "system name")
		fine := fs.Float64("default-fine", 0, "default fine amount")
		sms := fs.Bool("sms", true, "send SMS notifications")
		reminders := fs.Bool("reminders", true, "send penalty reminders")
		min := fs.Int("repeat-min", 3, "repeat offender threshold")
		deadline := fs.Int("deadline", 15, "payment deadline in days")
		fs.Parse(args)
		settings := model.Settings{
			SystemName:         *name,
			DefaultFineAmount:  *fine,
			SMSNotifications:   *sms,
			PenaltyReminders:   *reminders,
			RepeatOffenderMin:  *min,
			PaymentDeadlineDay: *deadline,
		}
		if result := app.UpdateSettings(ctx, settings); result.Err != nil {
			return result.Err
		}
		return nil
	default:
		return fmt.Errorf("unknown settings action %q", action)
	}
}

func violationFilterFlags(fs *flag.FlagSet) *model.ViolationFilter {
	filter := &model.ViolationFilter{}
	fs.StringVar(&filter.Search, "search", "", "free-text search")
	fs.StringVar(&filter.Status, "status", "", "filter by status")
	fs.StringVar(&filter.DateFrom, "from", "", "captured on or after (YYYY-MM-DD)")
	fs.StringVar(&filter.DateTo, "to", "", "captured on or before (YYYY-MM-DD)")
	fs.IntVar(&filter.Page, "page", 0, "page number")
	fs.IntVar(&filter.Limit, "limit", 0, "page size")
	return filter
}

func enforcerInputFlags(fs *flag.FlagSet) *model.EnforcerInput {
	input := &model.EnforcerInput{}
	fs.StringVar(&input.Username, "username", "", "sign-in name")
	fs.StringVar(&input.FullName, "full-name", "", "display name")
	fs.StringVar(&input.BadgeNumber, "badge", "", "badge number (prefilled when empty)")
	fs.StringVar(&input.Email, "email", "", "contact email")
	fs.StringVar(&input.PhoneNumber, "phone", "", "contact phone")
	return input
}

func usage() {
	fmt.Println(`Traffic violation console

Commands:
  login -email <e> -password <p>   sign in
  logout                           sign out
  passwd -current <p> -new <p>     change password
  dashboard                        show the dashboard once
  watch                            keep the dashboard refreshed
  violations [filters] [-export|-watch]
  violation get|update|delete|sms <id>
  enforcers list|create|update|activate|deactivate|delete
  reports -type <t> [period flags] [-export json|csv|pdf]
  offenders [-min N] [-limit N] [-watch]
  settings show|set                system settings`)
}
