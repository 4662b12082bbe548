package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/vudy/otc-desk/internal/services"
)

type fakeProofUploader struct {
	err         error
	gotFileName string
	gotHash     string
}

func (f *fakeProofUploader) UploadProof(ctx context.Context, transactionID, callerID uuid.UUID, fileName, hash string) error {
	f.gotFileName = fileName
	f.gotHash = hash
	return f.err
}

func TestUploadProofHandler(t *testing.T) {
	winner := uuid.New()
	transactionID := uuid.New()

	tests := []struct {
		name           string
		target         string
		body           string
		svc            *fakeProofUploader
		expectedStatus int
	}{
		{
			name:           "Success",
			target:         "/transactions/" + transactionID.String() + "/proof",
			body:           `{"file_name":"receipt.pdf","hash":"deadbeef"}`,
			svc:            &fakeProofUploader{},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "MissingFileName",
			target:         "/transactions/" + transactionID.String() + "/proof",
			body:           `{"hash":"deadbeef"}`,
			svc:            &fakeProofUploader{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "NotCounterparty",
			target:         "/transactions/" + transactionID.String() + "/proof",
			body:           `{"file_name":"receipt.pdf","hash":"deadbeef"}`,
			svc:            &fakeProofUploader{err: services.ErrForbidden},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "BuyTrade",
			target:         "/transactions/" + transactionID.String() + "/proof",
			body:           `{"file_name":"receipt.pdf","hash":"deadbeef"}`,
			svc:            &fakeProofUploader{err: services.ErrConflict},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Post("/transactions/{id}/proof", NewUploadProofHandler(tt.svc, &fakeSessionTokener{userID: winner}))

			req := httptest.NewRequest(http.MethodPost, tt.target, bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()

			r.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "receipt.pdf", tt.svc.gotFileName)
				assert.Equal(t, "deadbeef", tt.svc.gotHash)
			}
		})
	}
}
