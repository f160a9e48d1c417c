package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmarkin/storefront/internal/core/domain"
	"github.com/dmarkin/storefront/internal/core/port"
	"github.com/dmarkin/storefront/pkg/retry"
)

const resendAPIBase = "https://api.resend.com"

var _ port.ReceiptSender = (*ResendClient)(nil)

var errServerStatus = errors.New("server error status")

// ResendClient sends purchase receipts through the Resend REST API.
// BaseURL is overridable in tests via Config.
type ResendClient struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	sender      string
	downloadURL string
}

type Config struct {
	APIKey string
	Sender string
	// DownloadURL is the public prefix the verification id is appended to.
	DownloadURL string
	BaseURL     string
}

func NewResendClient(httpClient *http.Client, cfg Config) ResendClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = resendAPIBase
	}
	return ResendClient{
		httpClient:  httpClient,
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		sender:      cfg.Sender,
		downloadURL: cfg.DownloadURL,
	}
}

type sendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (c ResendClient) SendReceipt(
	ctx context.Context, receipt domain.Receipt,
) error {
	const op = "ResendClient.SendReceipt"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	html, err := c.renderReceipt(receipt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	body, err := json.Marshal(sendEmailRequest{
		From:    fmt.Sprintf("Support <%s>", c.sender),
		To:      []string{receipt.Email},
		Subject: "Order Confirmation",
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	retryCfg := retry.RetryConfig{
		MaxAttempts: 3,
		Backoff:     retry.ExponentialBackoff(200 * time.Millisecond),
		ShouldRetry: func(err error) bool {
			return errors.Is(err, errServerStatus)
		},
	}

	err = retry.Do(ctx, retryCfg, func() error {
		return c.post(ctx, body)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c ResendClient) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %d", errServerStatus, res.StatusCode)
	}
	if res.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("status %d: %s", res.StatusCode, msg)
	}
	return nil
}

var receiptTmpl = template.Must(template.New("receipt").Parse(`<html>
<body style="font-family:sans-serif;background:#fff">
	<h1>Purchase Receipt</h1>
	<p>Thank you for purchasing {{.ProductName}}.</p>
	<table>
		<tr><td>Order</td><td>{{.OrderID}}</td></tr>
		<tr><td>Purchased on</td><td>{{.PurchasedOn}}</td></tr>
		<tr><td>Amount paid</td><td>{{.AmountPaid}}</td></tr>
	</table>
	<p><a href="{{.DownloadLink}}">Download {{.ProductName}}</a></p>
	<p>The download link expires in 24 hours.</p>
</body>
</html>`))

type receiptData struct {
	ProductName  string
	OrderID      string
	PurchasedOn  string
	AmountPaid   string
	DownloadLink string
}

func (c ResendClient) renderReceipt(receipt domain.Receipt) (string, error) {
	data := receiptData{
		ProductName:  receipt.ProductName,
		OrderID:      receipt.OrderID,
		PurchasedOn:  receipt.OrderCreatedAt.Format("Jan 2, 2006"),
		AmountPaid:   formatCents(receipt.PriceCents),
		DownloadLink: strings.TrimSuffix(c.downloadURL, "/") + "/" + receipt.VerificationID,
	}

	var buf bytes.Buffer
	if err := receiptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
