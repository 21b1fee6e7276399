package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Shivanand-hulikatti/happening-registration/internal/model"
)

// registrationResponse is the body of every POST /registration reply.
type registrationResponse struct {
	Code         string            `json:"code"`
	Title        string            `json:"title"`
	Desc         string            `json:"desc"`
	Date         *time.Time        `json:"date,omitempty"`
	WaitListSpot *int              `json:"waitListSpot,omitempty"`
	SpotRanges   []model.SpotRange `json:"spotRanges,omitempty"`
}

// outcomeResponse maps an engine outcome to its HTTP status and body.
func outcomeResponse(out model.RegistrationOutcome, t model.HappeningType) (int, registrationResponse) {
	noun := t.Noun()
	res := registrationResponse{Code: string(out.Status)}

	switch out.Status {
	case model.StatusAccepted:
		res.Title = "You are registered!"
		res.Desc = fmt.Sprintf("Your registration for the %s has been received.", noun)
		return http.StatusOK, res

	case model.StatusWaitList:
		spot := out.WaitListSpot
		res.Title = "You are on the waitlist."
		res.Desc = fmt.Sprintf("All spots for the %s are taken. You are number %d on the waitlist.", noun, spot)
		res.WaitListSpot = &spot
		return http.StatusAccepted, res

	case model.StatusTooEarly:
		opens := out.OpensAt
		res.Title = "Registration has not opened yet."
		res.Desc = fmt.Sprintf("Registration for the %s opens %s.", noun, opens.Format(time.RFC3339))
		res.Date = &opens
		return http.StatusForbidden, res

	case model.StatusNotInRange:
		res.Title = fmt.Sprintf("You cannot register for this %s.", noun)
		res.Desc = fmt.Sprintf("The %s is only open to students in the degree years listed.", noun)
		res.SpotRanges = out.SpotRanges
		return http.StatusForbidden, res

	case model.StatusAlreadyExists:
		res.Title = "You are already registered."
		res.Desc = fmt.Sprintf("You can only register once for the %s.", noun)
		return http.StatusUnprocessableEntity, res

	case model.StatusHappeningDoesntExist:
		res.Title = fmt.Sprintf("This %s does not exist.", noun)
		res.Desc = "Try again later, or contact the organizer."
		return http.StatusConflict, res
	}

	res.Title = "Something went wrong."
	return http.StatusInternalServerError, res
}

func validationResponse(err *model.ValidationError) registrationResponse {
	return registrationResponse{
		Code:  err.Code,
		Title: "The registration is not valid.",
		Desc:  err.Message,
	}
}
