package wms

import (
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
)

// Exception codes of a WMS ServiceExceptionReport
const (
	CodeOperationNotSupported = "OperationNotSupported"
	CodeLayerNotDefined       = "LayerNotDefined"
	CodeInvalidFormat         = "InvalidFormat"
	CodeInvalidCRS            = "InvalidCRS"
	CodeInvalidParameter      = "InvalidParameterValue"
	CodeMissingParameter      = "MissingParameterValue"
)

// Exception is a client error reported to the caller as a WMS service
// exception
type Exception struct {
	Code    string
	Message string
}

func (e *Exception) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

func exceptionf(code, format string, args ...any) *Exception {
	return &Exception{Code: code, Message: fmt.Sprintf(format, args...)}
}

type serviceExceptionReport struct {
	XMLName    xml.Name           `xml:"ServiceExceptionReport"`
	Version    string             `xml:"version,attr"`
	Xmlns      string             `xml:"xmlns,attr"`
	Exceptions []serviceException `xml:"ServiceException"`
}

type serviceException struct {
	Code    string `xml:"code,attr,omitempty"`
	Message string `xml:",chardata"`
}

// writeException renders err as a ServiceExceptionReport. Exceptions are
// client errors, anything else is reported as an internal error.
func writeException(w http.ResponseWriter, version string, err error) {
	status := http.StatusInternalServerError
	report := serviceExceptionReport{
		Version: "1.3.0",
		Xmlns:   "http://www.opengis.net/ogc",
	}

	var wmsErr *Exception
	if errors.As(err, &wmsErr) {
		status = http.StatusBadRequest
		report.Exceptions = []serviceException{{Code: wmsErr.Code, Message: wmsErr.Message}}
	} else {
		report.Exceptions = []serviceException{{Message: err.Error()}}
	}

	contentType := "text/xml"
	if version == "1.1.1" {
		report.Version = version
		contentType = "application/vnd.ogc.se_xml"
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write([]byte(xml.Header))
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	_ = enc.Encode(report)
}
