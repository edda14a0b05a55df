package cmd

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/meridianchain/meridian/foundation/blockchain/execution"
	"github.com/meridianchain/meridian/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var (
	proofFile string
	keyFile   string
)

var challengeCmd = &cobra.Command{
	Use:   "challenge",
	Short: "Settlement challenge operations.",
}

var challengeSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Sign a fraud proof and submit it to the node.",
	RunE:  challengeSubmitRun,
}

func init() {
	rootCmd.AddCommand(challengeCmd)
	challengeCmd.AddCommand(challengeSubmitCmd)
	challengeSubmitCmd.Flags().StringVarP(&proofFile, "file", "f", "proof.json", "Path to the fraud proof document.")
	challengeSubmitCmd.Flags().StringVarP(&keyFile, "key", "k", "private.ecdsa", "Path to the challenger private key.")
	challengeSubmitCmd.MarkFlagRequired("file")
}

// proofDoc is the on-disk fraud proof document.
type proofDoc struct {
	BatchID      uint64              `json:"batch_id"`
	DisputedTxID string              `json:"disputed_tx_id"`
	EvidenceRef  string              `json:"evidence_ref"`
	Receipts     []execution.Receipt `json:"receipts"`
}

// challengeRequest matches the private API challenge model.
type challengeRequest struct {
	BatchID      uint64              `json:"batch_id"`
	DisputedTxID string              `json:"disputed_tx_id"`
	Receipts     []execution.Receipt `json:"receipts"`
	EvidenceRef  string              `json:"evidence_ref"`
	V            *big.Int            `json:"v"`
	R            *big.Int            `json:"r"`
	S            *big.Int            `json:"s"`
}

func challengeSubmitRun(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(proofFile)
	if err != nil {
		return err
	}

	var doc proofDoc
	if err := json.Unmarshal(content, &doc); err != nil {
		return fmt.Errorf("parse proof document: %w", err)
	}

	privateKey, err := crypto.LoadECDSA(keyFile)
	if err != nil {
		return fmt.Errorf("load private key: %w", err)
	}

	// The signed portion excludes the receipts; the node recovers the
	// challenger address from this payload.
	payload := struct {
		BatchID      uint64 `json:"batch_id"`
		DisputedTxID string `json:"disputed_tx_id"`
		EvidenceRef  string `json:"evidence_ref"`
	}{
		BatchID:      doc.BatchID,
		DisputedTxID: doc.DisputedTxID,
		EvidenceRef:  doc.EvidenceRef,
	}

	v, r, s, err := signature.Sign(payload, privateKey)
	if err != nil {
		return fmt.Errorf("sign proof: %w", err)
	}

	req := challengeRequest{
		BatchID:      doc.BatchID,
		DisputedTxID: doc.DisputedTxID,
		Receipts:     doc.Receipts,
		EvidenceRef:  doc.EvidenceRef,
		V:            v,
		R:            r,
		S:            s,
	}

	resp, err := privateClient().R().SetBody(req).Post("/v1/node/challenge")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("submit challenge: %s: %s", resp.Status(), resp.String())
	}

	return printJSON(resp.Body())
}
