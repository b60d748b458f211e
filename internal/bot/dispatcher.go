// Package bot implements the chat front-end. The Dispatcher turns updates
// into replies without knowing the transport; telegram.go maps them to the
// Bot API.
package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/render"
	"fintrack/internal/services"
	"fintrack/internal/session"
)

const (
	msgNoData       = "No data. Import transactions from the menu first."
	msgChooseAction = "Choose an action:"
	msgUnknown      = "Unknown command."
	msgHint         = "Use /start to open the menu."
	msgBadIndex     = "Enter a valid transaction index."
	msgLineFormat   = "Send a transaction as [YYYY-MM-DD] [amount] [category] [description]."

	// maxMessageLen is the Bot API limit for one text message.
	maxMessageLen = 4096
	// maxSkippedListed caps the bad lines echoed back after an import.
	maxSkippedListed = 10
	maxSkippedLen    = 200
)

// Photo is a PNG image to send.
type Photo struct {
	Name    string
	Data    []byte
	Caption string
}

// Reply is one outgoing message. A reply carries either Photos or Text;
// more than one photo is sent as an album.
type Reply struct {
	Text   string
	HTML   bool
	Photos []Photo
	Menu   Menu
}

// Dispatcher handles updates for every chat. Chats share one ledger; updates
// from the same chat are serialized.
type Dispatcher struct {
	svc      *services.LedgerService
	sessions session.Store
	chartDir string
	locks    sync.Map // int64 -> *sync.Mutex
}

func NewDispatcher(svc *services.LedgerService, sessions session.Store, chartDir string) *Dispatcher {
	if chartDir == "" {
		chartDir = os.TempDir()
	}
	return &Dispatcher{
		svc:      svc,
		sessions: sessions,
		chartDir: chartDir,
	}
}

// logger returns the request logger set by the transport, if any.
func (d *Dispatcher) logger(ctx context.Context) *log.Logger {
	return log.FromContext(ctx, log.ComponentBot)
}

func (d *Dispatcher) lock(chatID int64) func() {
	mu, _ := d.locks.LoadOrStore(chatID, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

func (d *Dispatcher) session(ctx context.Context, chatID int64) session.Session {
	s, err := d.sessions.Get(ctx, chatID)
	if err != nil {
		d.logger(ctx).ErrorContext(ctx, "Failed to load session", log.NewFields().WithChat(chatID).WithError(err).ToSlice()...)
		return session.IdleSession()
	}
	return s
}

func (d *Dispatcher) save(ctx context.Context, chatID int64, s session.Session) {
	if err := d.sessions.Set(ctx, chatID, s); err != nil {
		d.logger(ctx).ErrorContext(ctx, "Failed to store session",
			log.FieldChatID, chatID, log.FieldState, s.State.String(), log.FieldError, err)
	}
}

func (d *Dispatcher) await(ctx context.Context, chatID int64, state session.State) {
	d.save(ctx, chatID, session.Session{State: state})
}

// Start handles /start: the session is reset and the main menu shown.
func (d *Dispatcher) Start(ctx context.Context, chatID int64) []Reply {
	defer d.lock(chatID)()
	s := d.session(ctx, chatID)
	t := session.Next(s.State, session.InputStart)
	if err := d.sessions.Clear(ctx, chatID); err != nil {
		d.logger(ctx).ErrorContext(ctx, "Failed to clear session", log.FieldChatID, chatID, log.FieldError, err)
	}
	d.logger(ctx).DebugContext(ctx, "Session reset", log.FieldChatID, chatID, log.FieldState, t.Next.String())
	return []Reply{mainMenu()}
}

// Callback handles an inline button press.
func (d *Dispatcher) Callback(ctx context.Context, chatID int64, data string) []Reply {
	defer d.lock(chatID)()
	d.logger(ctx).DebugContext(ctx, "Callback received", log.FieldChatID, chatID, log.FieldText, data)

	switch data {
	case CallbackAddFile:
		d.await(ctx, chatID, session.AwaitingFile)
		return text("Send a file with one transaction per line.")
	case CallbackViewTransactions:
		return d.withData(func() []Reply {
			return append(d.transactionsTable("Your transactions:"), viewMenu())
		})
	case CallbackAddTransaction:
		d.await(ctx, chatID, session.AwaitingTransaction)
		return text(msgLineFormat)
	case CallbackDeleteTransaction:
		return d.withData(func() []Reply {
			d.await(ctx, chatID, session.AwaitingDeleteTransaction)
			return text(fmt.Sprintf("Send the number of the transaction to delete (0-%d).", d.svc.Len()-1))
		})
	case CallbackBudget:
		return d.withData(func() []Reply {
			return append(d.budgetTable(), setBudgetMenu())
		})
	case CallbackSetBudget:
		return d.withData(func() []Reply {
			d.await(ctx, chatID, session.AwaitingSetBudget)
			return text("Send a category and an amount, for example [Other] [600].")
		})
	case CallbackForecast:
		return d.withData(func() []Reply {
			return append(tableReplies("Your forecast:", render.ForecastTable(d.svc.Forecast())), mainMenu())
		})
	case CallbackTrendAnalysis:
		return d.withData(func() []Reply {
			return append(d.trendCharts(ctx), mainMenu())
		})
	case CallbackFilter:
		return []Reply{{Text: "Choose a field to filter by:", Menu: FilterMenu()}}
	case CallbackExpensesDiagram:
		return append(d.expensesDiagram(ctx), viewMenu())
	case CallbackSortMenu:
		return []Reply{{Text: "Choose a field and an order:", Menu: SortMenu()}}
	case CallbackMainMenu:
		return []Reply{mainMenu()}
	}

	if field, ok := parseFilterCallback(data); ok {
		d.save(ctx, chatID, session.Session{State: session.AwaitingFilterValue, FilterField: field})
		return text("Send the value to filter by.")
	}
	if field, order, ok := parseSortCallback(data); ok {
		if err := d.svc.Sort(ctx, field, order); err != nil {
			return text("Could not sort: " + err.Error())
		}
		return append(d.transactionsTable("Transactions sorted."), viewMenu())
	}
	d.logger(ctx).WarnContext(ctx, "Unknown callback", log.FieldChatID, chatID, log.FieldText, data)
	return text(msgUnknown)
}

// Text handles a free-text message. Outside an awaiting state it only
// answers with a hint.
func (d *Dispatcher) Text(ctx context.Context, chatID int64, msg string) []Reply {
	defer d.lock(chatID)()
	s := d.session(ctx, chatID)
	t := session.Next(s.State, session.InputText)
	if t.Action == session.ActionNone {
		if s.State == session.AwaitingFile {
			return text("Send the transactions as a file.")
		}
		return text(msgHint)
	}
	d.save(ctx, chatID, session.Session{State: t.Next})
	d.logger(ctx).DebugContext(ctx, "Handling message",
		log.FieldChatID, chatID, log.FieldState, s.State.String(), "action", t.Action.String())

	switch t.Action {
	case session.ActionAddTransaction:
		return d.addTransaction(ctx, msg)
	case session.ActionDeleteTransaction:
		return d.deleteTransaction(ctx, msg)
	case session.ActionApplyFilter:
		return d.applyFilter(ctx, s.FilterField, msg)
	case session.ActionSetBudget:
		return d.setBudget(ctx, msg)
	}
	return nil
}

// Document handles an uploaded file. open is called only when the chat is
// waiting for a file.
func (d *Dispatcher) Document(ctx context.Context, chatID int64, open func() (io.ReadCloser, error)) []Reply {
	defer d.lock(chatID)()
	s := d.session(ctx, chatID)
	t := session.Next(s.State, session.InputDocument)
	if t.Action != session.ActionImportFile {
		return nil
	}
	d.save(ctx, chatID, session.Session{State: t.Next})

	rc, err := open()
	if err != nil {
		d.logger(ctx).ErrorContext(ctx, "Failed to download file", log.FieldChatID, chatID, log.FieldError, err)
		return []Reply{{Text: "Could not process the file: " + err.Error()}, mainMenu()}
	}
	defer rc.Close()

	res, err := d.svc.ImportReader(ctx, rc)
	if err != nil {
		return []Reply{{Text: "Could not process the file: " + err.Error()}, mainMenu()}
	}
	return []Reply{{Text: importSummary(res)}, mainMenu()}
}

func (d *Dispatcher) addTransaction(ctx context.Context, line string) []Reply {
	if _, err := d.svc.AddLine(ctx, line); err != nil {
		return []Reply{{Text: "Could not add transaction: " + err.Error()}, mainMenu()}
	}
	return []Reply{{Text: "Transaction added."}, mainMenu()}
}

func (d *Dispatcher) deleteTransaction(ctx context.Context, msg string) []Reply {
	index, err := strconv.Atoi(strings.TrimSpace(msg))
	if err != nil {
		return []Reply{{Text: msgBadIndex}, mainMenu()}
	}
	if _, err := d.svc.DeleteTransaction(ctx, index); err != nil {
		return []Reply{{Text: msgBadIndex}, mainMenu()}
	}
	return []Reply{{Text: "Transaction deleted."}, mainMenu()}
}

func (d *Dispatcher) applyFilter(ctx context.Context, field core.Field, msg string) []Reply {
	if _, err := d.svc.Filter(ctx, field, strings.TrimSpace(msg)); err != nil {
		return text("Filter failed: " + err.Error())
	}
	return append(d.transactionsTable("Filter applied."), viewMenu())
}

func (d *Dispatcher) setBudget(ctx context.Context, msg string) []Reply {
	if _, _, err := d.svc.SetBudgetLine(ctx, msg); err != nil {
		return text("Could not set budget: " + err.Error())
	}
	return append(d.budgetTable(), setBudgetMenu())
}

func (d *Dispatcher) withData(fn func() []Reply) []Reply {
	if d.svc.Len() == 0 {
		return []Reply{{Text: msgNoData}, mainMenu()}
	}
	return fn()
}

func (d *Dispatcher) transactionsTable(title string) []Reply {
	return tableReplies(title, render.TransactionsTable(d.svc.Transactions()))
}

// budgetTable lists the categories with the largest spending first.
func (d *Dispatcher) budgetTable() []Reply {
	rows := d.svc.BudgetRows()
	slices.SortStableFunc(rows, func(a, b core.BudgetRow) int { return b.Spent.Cmp(a.Spent) })
	return tableReplies("Your budget:", render.BudgetTable(rows))
}

// tableReplies sends a table as one or more HTML messages that each fit the
// message limit. The title goes on the first one.
func tableReplies(title string, t render.Table) []Reply {
	pages := t.HTMLPages(maxMessageLen - render.TextLen(title) - 1)
	replies := make([]Reply, len(pages))
	for i, p := range pages {
		if i == 0 {
			p = title + "\n" + p
		}
		replies[i] = Reply{Text: p, HTML: true}
	}
	return replies
}

func (d *Dispatcher) expensesDiagram(ctx context.Context) []Reply {
	var buf bytes.Buffer
	err := render.ExpensesBarChart(&buf, d.svc.Transactions())
	switch {
	case errors.Is(err, render.ErrNoData):
		return text("No expenses to chart.")
	case err != nil:
		d.logger(ctx).ErrorContext(ctx, "Failed to render expense chart", log.FieldError, err)
		return text("Could not draw the chart.")
	}
	return []Reply{{Photos: []Photo{{Name: render.CategoryChartFile, Data: buf.Bytes(), Caption: "Expenses by category"}}}}
}

// trendCharts renders into a private directory so concurrent chats do not
// overwrite each other's files.
func (d *Dispatcher) trendCharts(ctx context.Context) []Reply {
	dir, err := os.MkdirTemp(d.chartDir, "trends-")
	if err != nil {
		d.logger(ctx).ErrorContext(ctx, "Failed to create chart directory", log.FieldPath, d.chartDir, log.FieldError, err)
		return text("Could not generate charts.")
	}
	defer os.RemoveAll(dir)

	paths, err := render.TrendCharts(ctx, dir, d.svc.Transactions())
	if err != nil {
		d.logger(ctx).ErrorContext(ctx, "Failed to render trend charts", log.FieldError, err)
		return text("Could not generate charts.")
	}
	photos := make([]Photo, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			d.logger(ctx).ErrorContext(ctx, "Failed to read chart", log.FieldPath, p, log.FieldError, err)
			continue
		}
		name := filepath.Base(p)
		photos = append(photos, Photo{Name: name, Data: data, Caption: name})
	}
	if len(photos) == 0 {
		return text("Could not generate charts.")
	}
	return []Reply{{Photos: photos}}
}

func importSummary(res services.ImportResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Added %d transactions, skipped %d lines.", res.Added, len(res.Skipped))
	for i, pe := range res.Skipped {
		if i == maxSkippedListed {
			fmt.Fprintf(&b, "\n...and %d more.", len(res.Skipped)-maxSkippedListed)
			break
		}
		b.WriteString("\n")
		b.WriteString(truncate(pe.Error(), maxSkippedLen))
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func text(s string) []Reply { return []Reply{{Text: s}} }

func mainMenu() Reply      { return Reply{Text: msgChooseAction, Menu: MainMenu()} }
func viewMenu() Reply      { return Reply{Text: msgChooseAction, Menu: ViewMenu()} }
func setBudgetMenu() Reply { return Reply{Text: msgChooseAction, Menu: SetBudgetMenu()} }
