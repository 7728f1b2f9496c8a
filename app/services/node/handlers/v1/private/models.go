package private

type nodeStatus struct {
	Consensus       string `json:"consensus"`
	Length          int    `json:"length"`
	LatestBlockHash string `json:"latest_block_hash"`
	Valid           bool   `json:"valid"`
	Difficulty      uint   `json:"difficulty,omitempty"`
	Validators      int    `json:"validators,omitempty"`
	Beneficiary     string `json:"beneficiary"`
}

type mineRequest struct {
	Beneficiary string `json:"beneficiary"`
	Nonce       uint64 `json:"nonce"`
}

type newValidator struct {
	ID    string  `json:"id" validate:"required"`
	Stake float64 `json:"stake" validate:"gte=0"`
}
