package handler

import "custos/pkg/domain"

type transferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

func (r transferRequest) parse() (from, to domain.Account, err error) {
	if from, err = domain.ParseAccount(r.From); err != nil {
		return "", "", err
	}
	if to, err = domain.ParseAccount(r.To); err != nil {
		return "", "", err
	}
	return from, to, nil
}

type mintRequest struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}
