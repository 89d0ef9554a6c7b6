// Copyright 2025 Raywall Malheiros de Souza
// Licensed under the Mozilla Public License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.mozilla.org/en-US/MPL/2.0/
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Package api mantém a tabela de registro das views REST do xrest.
//
// Visão Geral:
// Cada view registrada é montada em "{prefix}/{api_name}/{version}/" e suas
// rotas recebem nomes "{api_name}:{rota}", usados na reversão de URLs. A
// tabela é construída na inicialização e selada quando Handler é chamado;
// depois disso, Register retorna ErrSealed.
//
// Não há detecção de conflito: duas views com o mesmo api_name coexistem e a
// primeira registrada atende as requisições, como no roteamento do gorilla/mux.
//
// Exemplo:
//
//	registry := api.New(api.Config{Prefix: "/api", Version: "1.0"})
//	notes, _ := notes.NewView(notes.Deps{Repository: repo, Transactor: db, Settings: settings})
//	if err := registry.Register(notes); err != nil {
//		log.Fatal(err)
//	}
//	http.ListenAndServe(":8080", registry.Handler())
package api
