package cribis

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"

	"github.com/trailstone/osgraph/internal/connectors"
	"github.com/trailstone/osgraph/internal/logger"
)

const soapEnvelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"

// soapClient speaks just enough SOAP 1.1 for the two CRIBIS search
// operations: one request element in, one response element out.
type soapClient struct {
	endpoint string
	http     *http.Client
}

func newSOAPClient(endpoint string) *soapClient {
	return &soapClient{
		endpoint: endpoint,
		http:     &http.Client{Timeout: connectors.SlowTimeout},
	}
}

type requestEnvelope struct {
	XMLName xml.Name `xml:"soap:Envelope"`
	NS      string   `xml:"xmlns:soap,attr"`
	Body    requestBody
}

type requestBody struct {
	XMLName xml.Name `xml:"soap:Body"`
	Payload any
}

type responseEnvelope struct {
	Body struct {
		Inner []byte `xml:",innerxml"`
	} `xml:"Body"`
}

// call posts request as the body of a SOAP envelope and unmarshals the
// response body element into response.
func (c *soapClient) call(ctx context.Context, action string, request, response any) error {
	payload, err := xml.Marshal(requestEnvelope{
		NS:   soapEnvelopeNS,
		Body: requestBody{Payload: request},
	})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		bytes.NewReader(append([]byte(xml.Header), payload...)))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", action)

	logger.Debug("POST %s (%s)", c.endpoint, action)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", action, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &connectors.StatusError{Status: resp.StatusCode, Body: string(body)}
	}

	var envelope responseEnvelope
	if err := xml.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if err := xml.Unmarshal(envelope.Body.Inner, response); err != nil {
		return fmt.Errorf("decode %s response: %w", action, err)
	}
	return nil
}
