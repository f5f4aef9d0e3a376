package study

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aristath/mindset/internal/modules/catalog"
	"github.com/aristath/mindset/internal/modules/eventlog"
	"github.com/aristath/mindset/internal/modules/flow"
	"github.com/aristath/mindset/internal/modules/session"
	"github.com/aristath/mindset/internal/modules/validation"
)

// TaskView is what the task page renders: the stock's base content plus
// the participant's progress. Detailed description and chart analyses
// are not included here; they are revealed through information
// purchases.
type TaskView struct {
	DisplayNumber int               `json:"display_number"`
	TotalTasks    int               `json:"total_tasks"`
	TaskRef       string            `json:"task_ref"`
	Balance       float64           `json:"balance"`
	InfoCostSpent float64           `json:"info_cost_spent"`
	Stock         StockView         `json:"stock"`
	InfoCosts     catalog.InfoCosts `json:"info_costs"`
}

// StockView is the freely visible portion of a stock.
type StockView struct {
	Name             string  `json:"name"`
	Ticker           string  `json:"ticker"`
	Image            string  `json:"image,omitempty"`
	ShortDescription string  `json:"short_description"`
	ReturnPercent    float64 `json:"return_percent"`
}

// InfoContent is the revealed content for an accepted info purchase.
type InfoContent struct {
	InfoType catalog.InfoType `json:"info_type"`
	Ticker   string           `json:"ticker"`
	Title    string           `json:"title"`
	Body     string           `json:"body"`
	Image    string           `json:"image,omitempty"`
}

// InfoOutcome is the result of an info request or confirmation.
type InfoOutcome struct {
	// Status is "accepted", "pending", or "cancelled".
	Status string `json:"status"`
	// Cost of the pending request; zero for free or already-purchased.
	Cost float64 `json:"cost"`
	// Content is set when Status is "accepted".
	Content *InfoContent `json:"content,omitempty"`
	Balance float64      `json:"balance"`
}

// InfoError is a user-facing rejection of an information request.
type InfoError struct {
	Message string
}

func (e *InfoError) Error() string {
	return e.Message
}

// currentTask resolves the session's task pointer to its catalog entry.
func (c *Controller) currentTask(state *session.State) (*catalog.Task, string, error) {
	contentID, ok := state.CurrentTaskRef()
	if !ok {
		return nil, "", &catalog.NotFoundError{Ref: strconv.Itoa(state.TaskPointer)}
	}
	ref := strconv.Itoa(contentID)
	task, err := c.catalog.Get(ref)
	if err != nil {
		return nil, "", err
	}
	return task, ref, nil
}

// CurrentTask returns the task view for the session's current position.
func (c *Controller) CurrentTask(state *session.State) (*TaskView, error) {
	task, ref, err := c.currentTask(state)
	if err != nil {
		return nil, err
	}

	stock := task.Stocks[0]
	return &TaskView{
		DisplayNumber: state.TaskPointer,
		TotalTasks:    c.study.NumTasks,
		TaskRef:       ref,
		Balance:       state.Balance,
		InfoCostSpent: state.InfoCostSpent,
		Stock: StockView{
			Name:             stock.Name,
			Ticker:           stock.Ticker,
			Image:            stock.Image,
			ShortDescription: stock.ShortDescription,
			ReturnPercent:    stock.ReturnPercent,
		},
		InfoCosts: stock.InfoCosts,
	}, nil
}

// TutorialTask returns the task view for a tutorial round.
func (c *Controller) TutorialTask(state *session.State, ref string) (*TaskView, error) {
	task, err := c.catalog.Tutorial(ref)
	if err != nil {
		return nil, err
	}

	stock := task.Stocks[0]
	return &TaskView{
		TaskRef:       ref,
		Balance:       state.Balance,
		InfoCostSpent: state.InfoCostSpent,
		Stock: StockView{
			Name:             stock.Name,
			Ticker:           stock.Ticker,
			Image:            stock.Image,
			ShortDescription: stock.ShortDescription,
			ReturnPercent:    stock.ReturnPercent,
		},
		InfoCosts: stock.InfoCosts,
	}, nil
}

// RequestInfo starts (or immediately completes) an information purchase
// for the current task's stock.
//
// Free info and repeat purchases within the same task skip the
// confirmation step. Priced info parks a pending request that must be
// confirmed or cancelled before any other info request.
func (c *Controller) RequestInfo(ctx context.Context, state *session.State, infoType catalog.InfoType, stockIndex int) (*InfoOutcome, error) {
	if err := c.checkAccess(ctx, state, flow.PageTask); err != nil {
		return nil, err
	}
	if !catalog.ValidInfoType(infoType) {
		return nil, &InfoError{Message: fmt.Sprintf("Unknown information type: %s", infoType)}
	}

	task, ref, err := c.currentTask(state)
	if err != nil {
		return nil, err
	}
	stock, ok := task.Stock(stockIndex)
	if !ok {
		return nil, &InfoError{Message: fmt.Sprintf("Invalid stock index: %d", stockIndex)}
	}

	cost := stock.InfoCosts.Cost(infoType)
	if state.HasPurchased(infoType, stockIndex) {
		// Already paid earlier in this task
		cost = 0
	}

	if cost == 0 {
		// Free path: no confirmation, no balance change, no spend entry
		state.PurchasedInfo[session.InfoKey{InfoType: infoType, StockIndex: stockIndex}] = true

		c.logEvent(ctx, state, eventlog.Event{
			Type:        "info_view",
			Category:    eventlog.CategoryInteraction,
			PageName:    string(state.Page),
			TaskRef:     ref,
			ElementID:   string(infoType),
			ElementType: "modal",
			Action:      "open",
			StockTicker: stock.Ticker,
		})

		return &InfoOutcome{
			Status:  "accepted",
			Content: infoContent(stock, infoType),
			Balance: state.Balance,
		}, nil
	}

	state.Pending = &session.PendingInfoRequest{
		InfoType:   infoType,
		TaskRef:    ref,
		StockIndex: stockIndex,
		Cost:       cost,
	}

	c.logEvent(ctx, state, eventlog.Event{
		Type:        "info_request",
		Category:    eventlog.CategoryInteraction,
		PageName:    string(state.Page),
		TaskRef:     ref,
		ElementID:   string(infoType),
		ElementType: "modal",
		Action:      "open",
		StockTicker: stock.Ticker,
		Metadata:    map[string]interface{}{"cost": cost},
	})

	return &InfoOutcome{Status: "pending", Cost: cost, Balance: state.Balance}, nil
}

// ConfirmInfo resolves a pending information purchase. A stale request
// whose task no longer matches the current one is rejected instead of
// billed, which covers the navigation race around task boundaries.
func (c *Controller) ConfirmInfo(ctx context.Context, state *session.State, accept bool) (*InfoOutcome, error) {
	pending := state.Pending
	if pending == nil {
		return nil, &InfoError{Message: "No information request is awaiting confirmation"}
	}

	_, ref, err := c.currentTask(state)
	if err != nil {
		return nil, err
	}
	if pending.TaskRef != ref {
		state.Pending = nil
		return nil, &InfoError{Message: "This information offer is no longer valid"}
	}

	if !accept {
		state.Pending = nil
		c.logEvent(ctx, state, eventlog.Event{
			Type:        "info_purchase_cancel",
			Category:    eventlog.CategoryInteraction,
			PageName:    string(state.Page),
			TaskRef:     ref,
			ElementID:   string(pending.InfoType),
			Action:      "cancel",
			Metadata:    map[string]interface{}{"cost": pending.Cost},
		})
		return &InfoOutcome{Status: "cancelled", Balance: state.Balance}, nil
	}

	if pending.Cost > state.Balance {
		state.Pending = nil
		return nil, &InfoError{Message: fmt.Sprintf(
			"Information cost ($%.2f) exceeds available amount ($%.2f)", pending.Cost, state.Balance)}
	}

	task, _, err := c.currentTask(state)
	if err != nil {
		return nil, err
	}
	stock, ok := task.Stock(pending.StockIndex)
	if !ok {
		state.Pending = nil
		return nil, &InfoError{Message: fmt.Sprintf("Invalid stock index: %d", pending.StockIndex)}
	}

	state.Balance -= pending.Cost
	state.InfoCostSpent += pending.Cost
	state.PurchasedInfo[session.InfoKey{InfoType: pending.InfoType, StockIndex: pending.StockIndex}] = true
	state.Pending = nil

	c.logEvent(ctx, state, eventlog.Event{
		Type:        "info_purchase_accept",
		Category:    eventlog.CategoryInteraction,
		PageName:    string(state.Page),
		TaskRef:     ref,
		ElementID:   string(pending.InfoType),
		Action:      "accept",
		StockTicker: stock.Ticker,
		Metadata: map[string]interface{}{
			"cost":              pending.Cost,
			"remaining_balance": state.Balance,
			"info_cost_spent":   state.InfoCostSpent,
		},
	})

	return &InfoOutcome{
		Status:  "accepted",
		Cost:    pending.Cost,
		Content: infoContent(stock, pending.InfoType),
		Balance: state.Balance,
	}, nil
}

// infoContent builds the revealed display for an info type.
func infoContent(stock *catalog.Stock, infoType catalog.InfoType) *InfoContent {
	switch infoType {
	case catalog.InfoShowWeek:
		return &InfoContent{
			InfoType: infoType,
			Ticker:   stock.Ticker,
			Title:    fmt.Sprintf("%s - Weekly Analysis", stock.Name),
			Body:     stock.WeekAnalysis,
			Image:    stock.WeekImage,
		}
	case catalog.InfoShowMonth:
		return &InfoContent{
			InfoType: infoType,
			Ticker:   stock.Ticker,
			Title:    fmt.Sprintf("%s - Monthly Analysis", stock.Name),
			Body:     stock.MonthAnalysis,
			Image:    stock.MonthImage,
		}
	default:
		return &InfoContent{
			InfoType: infoType,
			Ticker:   stock.Ticker,
			Title:    fmt.Sprintf("%s - Detailed Information", stock.Name),
			Body:     stock.DetailedDescription,
		}
	}
}

// SubmitResult is the outcome of a task submission.
type SubmitResult struct {
	Settlement    string                   `json:"settlement"`
	NextPage      flow.Page                `json:"next_page"`
	Entries       []session.PortfolioEntry `json:"entries"`
	TotalInvested float64                  `json:"total_invested"`
	ProfitLoss    float64                  `json:"profit_loss"`
	Balance       float64                  `json:"balance"`
}

// SubmitTask validates and settles the current task's investment, then
// routes to the next page: the next task, a confidence/risk checkpoint,
// or feedback after the final task. On any validation failure no state
// is mutated.
func (c *Controller) SubmitTask(ctx context.Context, state *session.State, rawInvestments []string) (*SubmitResult, error) {
	if err := c.checkAccess(ctx, state, flow.PageTask); err != nil {
		return nil, err
	}

	task, ref, err := c.currentTask(state)
	if err != nil {
		return nil, err
	}
	displayNumber := state.TaskPointer

	// Validate every amount first; the first failure aborts untouched
	amounts := make([]float64, len(rawInvestments))
	for i, raw := range rawInvestments {
		stockName := ""
		if s, ok := task.Stock(i); ok {
			stockName = s.Name
		}
		amount, err := validation.ParseInvestment(raw, stockName)
		if err != nil {
			c.logEvent(ctx, state, eventlog.Event{
				Type:      "validation_error",
				Category:  eventlog.CategoryError,
				PageName:  string(flow.PageTask),
				TaskRef:   ref,
				ElementID: fmt.Sprintf("investment-input-%d", i),
				Action:    "submit",
				Metadata:  map[string]interface{}{"error": err.Error()},
			})
			return nil, err
		}
		amounts[i] = amount
	}

	if err := validation.ValidateTotal(amounts, state.Balance); err != nil {
		c.logEvent(ctx, state, eventlog.Event{
			Type:     "validation_error",
			Category: eventlog.CategoryError,
			PageName: string(flow.PageTask),
			TaskRef:  ref,
			Action:   "submit",
			Metadata: map[string]interface{}{"error": err.Error()},
		})
		return nil, err
	}

	var total float64
	for _, a := range amounts {
		total += a
	}

	// Settle each invested stock
	var entries []session.PortfolioEntry
	var profitLoss float64
	for i, invested := range amounts {
		if invested <= 0 {
			continue
		}
		stock, ok := task.Stock(i)
		if !ok {
			continue
		}

		finalValue := invested * (1 + stock.ReturnPercent/100)
		entry := session.PortfolioEntry{
			TaskNumber:    displayNumber,
			TaskRef:       ref,
			StockName:     stock.Name,
			Ticker:        stock.Ticker,
			Invested:      invested,
			ReturnPercent: stock.ReturnPercent,
			FinalValue:    finalValue,
			ProfitLoss:    finalValue - invested,
		}
		entries = append(entries, entry)
		state.Portfolio = append(state.Portfolio, entry)
		profitLoss += entry.ProfitLoss

		c.persist(state, "portfolio", func() error {
			return c.sink.SavePortfolioEntry(ctx, state.ParticipantID, eventlog.PortfolioRecord{
				TaskNumber:    entry.TaskNumber,
				TaskRef:       entry.TaskRef,
				StockName:     entry.StockName,
				Ticker:        entry.Ticker,
				Invested:      entry.Invested,
				ReturnPercent: entry.ReturnPercent,
				FinalValue:    entry.FinalValue,
				ProfitLoss:    entry.ProfitLoss,
			})
		})
	}

	// Debit once with the summed total to avoid rounding drift
	state.Balance -= total
	state.Responses[displayNumber] = session.TaskResponse{Investments: amounts, Total: total}

	stock := task.Stocks[0]
	investment := 0.0
	if len(amounts) > 0 {
		investment = amounts[0]
	}
	c.persist(state, "task_response", func() error {
		return c.sink.SaveTaskResponse(ctx, state.ParticipantID, eventlog.TaskResponseRecord{
			TaskNumber:      displayNumber,
			TaskRef:         ref,
			Ticker:          stock.Ticker,
			StockName:       stock.Name,
			Investment:      investment,
			TotalInvestment: total,
			RemainingAmount: state.Balance,
		})
	})
	c.logEvent(ctx, state, eventlog.Event{
		Type:        "task_submit",
		Category:    eventlog.CategoryInteraction,
		PageName:    string(flow.PageTask),
		TaskRef:     ref,
		ElementID:   "task-submit",
		ElementType: "button",
		Action:      "submit",
		StockTicker: stock.Ticker,
		Metadata: map[string]interface{}{
			"display_number":   displayNumber,
			"investments":      amounts,
			"total_investment": total,
			"remaining_amount": state.Balance,
		},
	})

	// Advance past the completed task; per-task info state resets
	state.TaskPointer++
	state.ClearTaskInfo()

	// Routing follows the sequential display number, never the
	// randomized content id
	next := flow.PageTask
	switch {
	case c.study.IsCheckpoint(displayNumber):
		next = flow.PageConfidenceRisk
	case displayNumber == c.study.NumTasks:
		next = flow.PageFeedback
	}
	// Always a fresh transition: advancing task to task re-enters the
	// task page with a new task reference
	c.transition(ctx, state, next)

	return &SubmitResult{
		Settlement:    settlementMessage(total, profitLoss),
		NextPage:      next,
		Entries:       entries,
		TotalInvested: total,
		ProfitLoss:    profitLoss,
		Balance:       state.Balance,
	}, nil
}

// settlementMessage describes the aggregate outcome of a task.
func settlementMessage(total, profitLoss float64) string {
	switch {
	case total == 0:
		return "You chose not to invest in this task."
	case profitLoss > 0:
		return fmt.Sprintf("You invested $%.2f and made a profit of $%.2f.", total, profitLoss)
	case profitLoss < 0:
		return fmt.Sprintf("You invested $%.2f and made a loss of $%.2f.", total, -profitLoss)
	default:
		return fmt.Sprintf("You invested $%.2f and broke even.", total)
	}
}
