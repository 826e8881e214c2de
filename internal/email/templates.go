package email

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/youssefhamdan/tijara-backend/pkg/db/models"
)

var orderConfirmationTmpl = template.Must(template.New("order_confirmation").Parse(`
<div style="font-family:sans-serif;max-width:600px;margin:0 auto">
  <h2>Thank you for your order, {{.Name}}!</h2>
  <p>Your order <strong>{{.OrderNumber}}</strong> has been received.</p>
  <table style="width:100%;border-collapse:collapse">
    {{range .Items}}
    <tr>
      <td style="padding:4px 0">{{.Name}} &times; {{.Qty}}</td>
      <td style="padding:4px 0;text-align:right">{{.LineTotal}}</td>
    </tr>
    {{end}}
    <tr>
      <td style="padding:8px 0;border-top:1px solid #ddd">Delivery (paid to courier)</td>
      <td style="padding:8px 0;border-top:1px solid #ddd;text-align:right">{{.ShippingPrice}}</td>
    </tr>
    <tr>
      <td style="padding:8px 0;font-weight:bold">Items total</td>
      <td style="padding:8px 0;text-align:right;font-weight:bold">{{.Total}}</td>
    </tr>
  </table>
  <p>We will let you know as soon as it ships.</p>
  <p>{{.StoreName}}</p>
</div>`))

var orderStatusTmpl = template.Must(template.New("order_status").Parse(`
<div style="font-family:sans-serif;max-width:600px;margin:0 auto">
  <h2>Order update</h2>
  <p>Hello {{.Name}}, your order <strong>{{.OrderNumber}}</strong> is now <strong>{{.Status}}</strong>.</p>
  {{if .TrackingCode}}<p>Tracking code: <strong>{{.TrackingCode}}</strong></p>{{end}}
  <p>{{.StoreName}}</p>
</div>`))

type confirmationItem struct {
	Name      string
	Qty       int
	LineTotal string
}

type confirmationData struct {
	Name          string
	OrderNumber   string
	Items         []confirmationItem
	ShippingPrice string
	Total         string
	StoreName     string
}

type statusData struct {
	Name         string
	OrderNumber  string
	Status       string
	TrackingCode string
	StoreName    string
}

// RenderOrderConfirmation builds the subject and body for a new order.
func RenderOrderConfirmation(order *models.Order, storeName string) (string, string, error) {
	data := confirmationData{
		Name:          order.ContactName,
		OrderNumber:   order.OrderNumber,
		ShippingPrice: order.ShippingPrice.StringFixed(2),
		Total:         order.TotalAmount.StringFixed(2),
		StoreName:     storeName,
	}
	for _, item := range order.Items {
		data.Items = append(data.Items, confirmationItem{
			Name:      item.Name,
			Qty:       item.Qty,
			LineTotal: item.LineTotal.StringFixed(2),
		})
	}

	var body bytes.Buffer
	if err := orderConfirmationTmpl.Execute(&body, data); err != nil {
		return "", "", err
	}
	subject := fmt.Sprintf("Order %s confirmed", order.OrderNumber)
	return subject, body.String(), nil
}

// RenderOrderStatus builds the subject and body for a status change.
func RenderOrderStatus(order *models.Order, storeName string) (string, string, error) {
	data := statusData{
		Name:        order.ContactName,
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
		StoreName:   storeName,
	}
	if order.TrackingCode != nil {
		data.TrackingCode = *order.TrackingCode
	}

	var body bytes.Buffer
	if err := orderStatusTmpl.Execute(&body, data); err != nil {
		return "", "", err
	}
	subject := fmt.Sprintf("Order %s is %s", order.OrderNumber, order.Status)
	return subject, body.String(), nil
}
