package controllers

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"time"

	"caketime/entity"
	"caketime/pkg/resp"
	"caketime/services"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
)

type AdminController struct {
	reports *services.ReportService
}

func NewAdminController(reports *services.ReportService) *AdminController {
	return &AdminController{reports: reports}
}

// GET /admin/stats
func (ac *AdminController) Stats(c *gin.Context) {
	stats, err := ac.reports.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	resp.OK(c, stats)
}

// GET /admin/sales-report?period=daily|weekly|monthly&from&to
func (ac *AdminController) SalesReport(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	rep, err := ac.reports.SalesReport(c.Request.Context(), services.Period(c.Query("period")), from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	resp.OK(c, rep)
}

// GET /admin/customer-report?limit
func (ac *AdminController) CustomerReport(c *gin.Context) {
	rep, err := ac.reports.CustomerReport(c.Request.Context(), queryInt(c, "limit", 10))
	if err != nil {
		writeError(c, err)
		return
	}
	resp.OK(c, rep)
}

// ExportColumns is the fixed column order of every order export.
var ExportColumns = []string{"orderId", "date", "customer", "email", "phone", "amount", "status", "paymentStatus", "city"}

func exportRow(o *entity.Order) []string {
	return []string{
		o.OrderNumber,
		o.CreatedAt.Format(time.DateOnly),
		o.Customer.Name,
		o.Customer.Email,
		o.Customer.Phone,
		o.Payment.Amount.StringFixed(2),
		string(o.Status),
		string(o.Payment.Status),
		o.Delivery.City,
	}
}

// WriteOrdersCSV quotes fields as needed, so commas and quotes in names
// or addresses cannot shift columns.
func WriteOrdersCSV(w io.Writer, orders []entity.Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportColumns); err != nil {
		return err
	}
	for i := range orders {
		if err := cw.Write(exportRow(&orders[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteOrdersXLSX(w io.Writer, orders []entity.Order) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return err
	}
	header := sheet.AddRow()
	for _, h := range ExportColumns {
		header.AddCell().SetValue(h)
	}
	for i := range orders {
		o := &orders[i]
		row := sheet.AddRow()
		for j, v := range exportRow(o) {
			if ExportColumns[j] == "amount" {
				f, _ := o.Payment.Amount.Float64()
				row.AddCell().SetFloatWithFormat(f, "0.00")
				continue
			}
			row.AddCell().SetValue(v)
		}
	}
	return file.Write(w)
}

// GET /admin/export/orders?format=csv|json|xlsx&from&to&status
func (ac *AdminController) ExportOrders(c *gin.Context) {
	f, ok := orderFilter(c)
	if !ok {
		return
	}
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "json" && format != "xlsx" {
		resp.BadRequest(c, "format must be csv, json or xlsx")
		return
	}

	orders, err := ac.reports.ExportOrders(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}

	name := fmt.Sprintf("orders-%s.%s", time.Now().Format("20060102"), format)
	switch format {
	case "json":
		resp.OK(c, gin.H{"count": len(orders), "orders": orders})
	case "xlsx":
		c.Header("Content-Disposition", "attachment; filename="+name)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Status(http.StatusOK)
		if err := WriteOrdersXLSX(c.Writer, orders); err != nil {
			c.Error(err)
		}
	default:
		c.Header("Content-Disposition", "attachment; filename="+name)
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Status(http.StatusOK)
		if err := WriteOrdersCSV(c.Writer, orders); err != nil {
			c.Error(err)
		}
	}
}
