package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/vudy/otc-desk/internal/models"
	"github.com/vudy/otc-desk/internal/services"
)

type fakeOfferAccepter struct {
	result    *models.TransactionDB
	err       error
	gotOffer  uuid.UUID
	gotCaller uuid.UUID
}

func (f *fakeOfferAccepter) AcceptOffer(ctx context.Context, transactionID, offerID, callerID uuid.UUID) (*models.TransactionDB, error) {
	f.gotOffer = offerID
	f.gotCaller = callerID
	return f.result, f.err
}

func TestAcceptOfferHandler(t *testing.T) {
	owner := uuid.New()
	transactionID := uuid.New()
	offerID := uuid.New()
	escrowed := &models.TransactionDB{TransactionID: transactionID, Status: models.StatusEscrow}

	tests := []struct {
		name           string
		target         string
		body           string
		svc            *fakeOfferAccepter
		expectedStatus int
	}{
		{
			name:           "Success",
			target:         "/transactions/" + transactionID.String() + "/accept",
			body:           fmt.Sprintf(`{"offer_id":%q}`, offerID),
			svc:            &fakeOfferAccepter{result: escrowed},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "BadTransactionID",
			target:         "/transactions/not-a-uuid/accept",
			body:           fmt.Sprintf(`{"offer_id":%q}`, offerID),
			svc:            &fakeOfferAccepter{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "MissingOfferID",
			target:         "/transactions/" + transactionID.String() + "/accept",
			body:           `{}`,
			svc:            &fakeOfferAccepter{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "NotOwner",
			target:         "/transactions/" + transactionID.String() + "/accept",
			body:           fmt.Sprintf(`{"offer_id":%q}`, offerID),
			svc:            &fakeOfferAccepter{err: services.ErrForbidden},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "OfferNotFound",
			target:         "/transactions/" + transactionID.String() + "/accept",
			body:           fmt.Sprintf(`{"offer_id":%q}`, offerID),
			svc:            &fakeOfferAccepter{err: services.ErrOfferNotFound},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "LostRace",
			target:         "/transactions/" + transactionID.String() + "/accept",
			body:           fmt.Sprintf(`{"offer_id":%q}`, offerID),
			svc:            &fakeOfferAccepter{err: services.ErrConflict},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Post("/transactions/{id}/accept", NewAcceptOfferHandler(tt.svc, &fakeSessionTokener{userID: owner}))

			req := httptest.NewRequest(http.MethodPost, tt.target, bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()

			r.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, offerID, tt.svc.gotOffer)
				assert.Equal(t, owner, tt.svc.gotCaller)
			}
		})
	}
}
