package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/knowmymeds/api/internal/domain/intakelog"
	"github.com/knowmymeds/api/internal/domain/prescription"
	"github.com/knowmymeds/api/internal/service"
)

type MedicationHandler struct {
	svc *service.PrescriptionService
}

func NewMedicationHandler(svc *service.PrescriptionService) *MedicationHandler {
	return &MedicationHandler{svc: svc}
}

type slotRequest struct {
	Time            string `json:"time" binding:"required"`
	NumberOfTablets int    `json:"number_of_tablets"`
}

type createMedicationRequest struct {
	Medicine            string        `json:"medicine" binding:"required"`
	DoseMg              string        `json:"dose_in_mg" binding:"required"`
	Form                string        `json:"form" binding:"required"`
	Quantity            string        `json:"quantity"`
	TreatmentStartDate  string        `json:"treatment_start_date" binding:"required"`
	TreatmentEndDate    string        `json:"treatment_end_date" binding:"required"`
	SpecialInstructions string        `json:"special_instructions"`
	Frequency           []slotRequest `json:"frequency" binding:"required"`
}

func (h *MedicationHandler) Create(c *gin.Context) {
	var req createMedicationRequest
	if !bindJSON(c, &req) {
		return
	}

	start, ok := parseDate(c, "treatment_start_date", req.TreatmentStartDate)
	if !ok {
		return
	}
	end, ok := parseDate(c, "treatment_end_date", req.TreatmentEndDate)
	if !ok {
		return
	}

	slots := prescription.SlotSet{}
	for _, s := range req.Frequency {
		if err := slots.Add(s.Time, s.NumberOfTablets); err != nil {
			respondServiceError(c, err)
			return
		}
	}

	cmd := &prescription.CreateMedicationCommand{
		Medicine:            req.Medicine,
		DoseMg:              req.DoseMg,
		Form:                prescription.MedicineForm(req.Form),
		Quantity:            req.Quantity,
		StartDate:           start,
		EndDate:             end,
		SpecialInstructions: req.SpecialInstructions,
		Slots:               slots,
	}

	result, err := h.svc.CreateMedication(c.Request.Context(), callerID(c), cmd, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, result)
}

func (h *MedicationHandler) List(c *gin.Context) {
	q := &prescription.ListMedicationsQuery{
		UserID:   callerID(c),
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}

	paged, err := h.svc.ListMedications(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, paged)
}

func (h *MedicationHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	rx, slots, err := h.svc.GetMedication(c.Request.Context(), callerID(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"prescription": rx, "schedules": slots})
}

func (h *MedicationHandler) Delete(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteMedication(c.Request.Context(), callerID(c), id, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"deleted": id})
}

func (h *MedicationHandler) Calendar(c *gin.Context) {
	from, ok := parseDate(c, "from", c.Query("from"))
	if !ok {
		return
	}
	to, ok := parseDate(c, "to", c.Query("to"))
	if !ok {
		return
	}

	summary, err := h.svc.CalendarSummary(c.Request.Context(), callerID(c), from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, summary)
}

type intakeStatusRequest struct {
	PrescriptionID string  `json:"prescription_id" binding:"required"`
	ScheduleSlotID string  `json:"schedule_slot_id" binding:"required"`
	Date           string  `json:"date" binding:"required"`
	Status         string  `json:"status" binding:"required"`
	TakenAt        *string `json:"taken_at"`
}

func (h *MedicationHandler) SetIntakeStatus(c *gin.Context) {
	var req intakeStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	rxID, err := parseUUIDString(req.PrescriptionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid prescription_id"})
		return
	}
	slotID, err := parseUUIDString(req.ScheduleSlotID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid schedule_slot_id"})
		return
	}
	date, ok := parseDate(c, "date", req.Date)
	if !ok {
		return
	}

	var takenAt *time.Time
	if req.TakenAt != nil {
		t, err := time.Parse(time.RFC3339, *req.TakenAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid taken_at: must be RFC 3339"})
			return
		}
		takenAt = &t
	}

	err = h.svc.SetIntakeStatus(
		c.Request.Context(),
		callerID(c),
		rxID,
		slotID,
		date,
		intakelog.Status(req.Status),
		takenAt,
		c.ClientIP(),
	)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"status": req.Status})
}
