package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/billoflading"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/clearance"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/storage"
)

const timeLayout = "2006-01-02 15:04:05"

type Storage interface {
	CreateContainer(ctx context.Context, data clearance.ExtractedData, filename string) (*clearance.Container, error)
	GetContainer(ctx context.Context, id string) (*clearance.Container, error)
	ListContainers(ctx context.Context, filter storage.ListFilter) ([]*clearance.Container, error)
	ValidateContainer(ctx context.Context, id string, force bool) (clearance.ValidationResult, error)
	CheckCustomsStatus(ctx context.Context, id string) (clearance.CustomsStatusResult, error)
	PayCustomsDuty(ctx context.Context, id string, amount decimal.Decimal, reference string) (clearance.PaymentResult, error)
	CheckShippingStatus(ctx context.Context, id string) (clearance.ShippingStatusResult, error)
	ScheduleInspection(ctx context.Context, id string) (clearance.InspectionScheduleResult, error)
	CompleteInspection(ctx context.Context, id string, passed bool) (clearance.InspectionResult, error)
	ReleaseContainer(ctx context.Context, id string) (clearance.ReleaseResult, error)
}

type Handler struct {
	storage  Storage
	out      io.Writer
	readFile func(string) ([]byte, error)
}

func New(storage Storage, out io.Writer) *Handler {
	return &Handler{storage: storage, out: out, readFile: os.ReadFile}
}

func (h *Handler) println(a ...any) {
	fmt.Fprintln(h.out, a...)
}

func (h *Handler) printf(format string, a ...any) {
	fmt.Fprintf(h.out, format, a...)
}

func (h *Handler) HandleHelp() {
	h.println(`Available commands:
	upload <file> - Parse a bill of lading text file and register the container
	get <containerID> - Show container details
	list [status] [limit] - List containers, newest first
	validate <containerID> [--force] - Validate document fields
	customs <containerID> - Check customs status and duty
	pay <containerID> <amount> [reference] - Pay customs duty
	shipping <containerID> - Check shipping status
	schedule <containerID> - Schedule physical inspection
	complete <containerID> <pass|fail> - Record inspection outcome
	release <containerID> - Release container for pickup
	logs <containerID> - Show audit log
	exit - Exit program`)
}

func (h *Handler) HandleUpload(ctx context.Context, args []string) {
	if len(args) != 1 {
		h.println("Usage: upload <file>")
		return
	}

	raw, err := h.readFile(args[0])
	if err != nil {
		h.println("Error:", err)
		return
	}

	parsed := billoflading.Parse(string(raw))
	if !parsed.Success {
		h.println("Document parsing failed:", strings.Join(parsed.Errors, "; "))
		return
	}
	for _, warning := range parsed.Errors {
		h.println("Warning:", warning)
	}

	c, err := h.storage.CreateContainer(ctx, parsed.Data, args[0])
	if err != nil {
		h.println("Error:", err)
		return
	}
	h.printf("Container %s registered [%s]\n", c.ContainerID, c.OverallStatus)
}

func (h *Handler) HandleGet(ctx context.Context, args []string) {
	if len(args) != 1 {
		h.println("Usage: get <containerID>")
		return
	}

	c, err := h.storage.GetContainer(ctx, args[0])
	if err != nil {
		h.println("Error:", err)
		return
	}

	h.printf("Container %s [%s]\n", c.ContainerID, c.OverallStatus)
	h.printf("  Vessel:     %s\n", orDash(c.VesselName))
	h.printf("  Importer:   %s (TIN %s)\n", orDash(c.ImporterName), orDash(c.TIN))
	h.printf("  Discharge:  %s\n", orDash(c.PortOfDischarge))
	if c.CargoWeight.Valid {
		h.printf("  Weight:     %s kg\n", c.CargoWeight.Decimal.String())
	}
	h.printf("  Customs:    %s", c.CustomsStatus)
	if c.CustomsDutyAmount.Valid {
		h.printf(" (duty %s)", clearance.FormatNaira(c.CustomsDutyAmount.Decimal))
	}
	h.println()
	h.printf("  Shipping:   %s\n", c.ShippingStatus)
	h.printf("  Inspection: %s", c.InspectionStatus)
	if c.InspectionScheduledFor != nil {
		h.printf(" (%s)", c.InspectionScheduledFor.Format(timeLayout))
	}
	h.println()
	for _, e := range c.ValidationErrors {
		h.printf("  ! %s\n", e)
	}
}

func (h *Handler) HandleList(ctx context.Context, args []string) {
	var filter storage.ListFilter
	for _, arg := range args {
		if n, err := strconv.Atoi(arg); err == nil {
			if n < 0 {
				h.println("Invalid limit")
				return
			}
			filter.Limit = n
			continue
		}
		filter.Status = strings.ToUpper(arg)
	}

	containers, err := h.storage.ListContainers(ctx, filter)
	if err != nil {
		h.println("Error:", err)
		return
	}

	if len(containers) == 0 {
		h.println("No containers found")
		return
	}

	h.println("Containers:")
	for _, c := range containers {
		h.printf("- %s | %s | Vessel: %s | Created: %s\n",
			c.ContainerID, c.OverallStatus, orDash(c.VesselName), c.CreatedAt.Format(timeLayout))
	}
}

func (h *Handler) HandleValidate(ctx context.Context, args []string) {
	if len(args) < 1 || len(args) > 2 || (len(args) == 2 && args[1] != "--force") {
		h.println("Usage: validate <containerID> [--force]")
		return
	}

	res, err := h.storage.ValidateContainer(ctx, args[0], len(args) == 2)
	if err != nil {
		h.println("Error:", err)
		return
	}

	if res.Valid {
		h.println("Validation successful")
	} else {
		h.println("Validation failed")
	}
	for _, e := range res.Errors {
		h.printf("- %s\n", e)
	}
}

func (h *Handler) HandleCustoms(ctx context.Context, args []string) {
	if len(args) != 1 {
		h.println("Usage: customs <containerID>")
		return
	}

	res, err := h.storage.CheckCustomsStatus(ctx, args[0])
	if err != nil {
		h.println("Error:", err)
		return
	}

	if res.AmountDue.Valid {
		h.printf("Customs %s: %s due\n", res.Status, clearance.FormatNaira(res.AmountDue.Decimal))
		return
	}
	h.printf("Customs %s\n", res.Status)
}

func (h *Handler) HandlePay(ctx context.Context, args []string) {
	if len(args) < 2 || len(args) > 3 {
		h.println("Usage: pay <containerID> <amount> [reference]")
		return
	}

	amount, err := decimal.NewFromString(args[1])
	if err != nil {
		h.println("Invalid amount")
		return
	}
	var reference string
	if len(args) == 3 {
		reference = args[2]
	}

	res, err := h.storage.PayCustomsDuty(ctx, args[0], amount, reference)
	if err != nil {
		h.println("Error:", err)
		return
	}
	h.printf("Paid %s for %s. Reference: %s\n", clearance.FormatNaira(res.AmountPaid), res.ContainerID, res.Reference)
}

func (h *Handler) HandleShipping(ctx context.Context, args []string) {
	if len(args) != 1 {
		h.println("Usage: shipping <containerID>")
		return
	}

	res, err := h.storage.CheckShippingStatus(ctx, args[0])
	if err != nil {
		h.println("Error:", err)
		return
	}
	h.printf("Container %s is %s | Vessel: %s | Port: %s\n",
		res.ContainerID, res.ShippingStatus, orDash(res.VesselName), orDash(res.PortOfDischarge))
}

func (h *Handler) HandleSchedule(ctx context.Context, args []string) {
	if len(args) != 1 {
		h.println("Usage: schedule <containerID>")
		return
	}

	res, err := h.storage.ScheduleInspection(ctx, args[0])
	if err != nil {
		h.println("Error:", err)
		return
	}
	h.printf("Inspection scheduled for %s\n", res.ScheduledDate.Format(timeLayout))
}

func (h *Handler) HandleComplete(ctx context.Context, args []string) {
	if len(args) != 2 {
		h.println("Usage: complete <containerID> <pass|fail>")
		return
	}

	var passed bool
	switch args[1] {
	case "pass":
		passed = true
	case "fail":
	default:
		h.println("Invalid outcome. Use 'pass' or 'fail'")
		return
	}

	res, err := h.storage.CompleteInspection(ctx, args[0], passed)
	if err != nil {
		h.println("Error:", err)
		return
	}
	h.printf("Inspection %s | Container %s [%s]\n", res.InspectionStatus, res.ContainerID, res.OverallStatus)
}

func (h *Handler) HandleRelease(ctx context.Context, args []string) {
	if len(args) != 1 {
		h.println("Usage: release <containerID>")
		return
	}

	res, err := h.storage.ReleaseContainer(ctx, args[0])
	if err != nil {
		h.println("Error:", err)
		return
	}
	h.printf("Container %s released, %s\n", res.ContainerID, strings.ToLower(strings.ReplaceAll(string(res.ShippingStatus), "_", " ")))
}

func (h *Handler) HandleLogs(ctx context.Context, args []string) {
	if len(args) != 1 {
		h.println("Usage: logs <containerID>")
		return
	}

	c, err := h.storage.GetContainer(ctx, args[0])
	if err != nil {
		h.println("Error:", err)
		return
	}

	if len(c.Logs) == 0 {
		h.println("No log entries for this container")
		return
	}

	h.println("Container log:")
	for _, e := range c.Logs {
		h.printf("- %s [%s] %s: %s\n", e.Timestamp.Format(timeLayout), e.Actor, e.Action, e.Details)
	}
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
