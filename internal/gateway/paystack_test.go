package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitializeSendsBearerAndReturnsAuthorizationURL(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq InitializeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/abc123","access_code":"abc123","reference":"order_1"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test_secret")
	link, err := c.Initialize(context.Background(), InitializeRequest{
		Email:     "buyer@x.com",
		Amount:    30999,
		Reference: "order_1",
	})
	require.NoError(t, err)
	require.Equal(t, "https://checkout.paystack.com/abc123", link)
	require.Equal(t, "Bearer sk_test_secret", gotAuth)
	require.Equal(t, "/transaction/initialize", gotPath)
	require.Equal(t, int64(30999), gotReq.Amount)
	require.Equal(t, "order_1", gotReq.Reference)
}

func TestInitializeSurfacesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":false,"message":"Invalid key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_bad")
	_, err := c.Initialize(context.Background(), InitializeRequest{Email: "a@x.com", Amount: 100})
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 401")
}

func TestInitializeRejectedByGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":false,"message":"Amount too low"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test_secret")
	_, err := c.Initialize(context.Background(), InitializeRequest{Email: "a@x.com", Amount: 1})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Amount too low")
}

func TestVerifyFetchesByReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transaction/verify/order_1", r.URL.Path)
		require.Equal(t, "Bearer sk_test_secret", r.Header.Get("Authorization"))
		w.Write([]byte(`{"status":true,"data":{"status":"success","reference":"order_1","amount":30999,"id":4242}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test_secret")
	data, err := c.Verify(context.Background(), "order_1")
	require.NoError(t, err)
	require.Equal(t, VerifyData{Status: "success", Reference: "order_1", Amount: 30999, ID: 4242}, data)
}

func TestVerifyNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test_secret")
	_, err := c.Verify(context.Background(), "order_missing")
	require.Error(t, err)
}

func TestValidSignature(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"order_1"}}`)
	secret := "sk_test_secret"

	sig := Sign(body, secret)
	require.True(t, ValidSignature(body, sig, secret))

	// Any single change to body, signature, or key must fail.
	require.False(t, ValidSignature(append([]byte{' '}, body...), sig, secret))

	tampered := []byte(sig)
	if tampered[0] == '0' {
		tampered[0] = '1'
	} else {
		tampered[0] = '0'
	}
	require.False(t, ValidSignature(body, string(tampered), secret))
	require.False(t, ValidSignature(body, sig, "sk_other"))
	require.False(t, ValidSignature(body, "", secret))
}
